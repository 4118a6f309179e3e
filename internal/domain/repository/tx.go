package repository

// TxRepositories agrupa los repositorios que comparten una misma transacción.
type TxRepositories struct {
	Stock      StockRepository
	Movements  InventoryMovementRepository
	Accounting AccountingEntryRepository
	Sales      SaleRepository
	Catalog    CatalogRepository
}
