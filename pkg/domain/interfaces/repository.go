package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Event() EventRepository
	Article() ArticleRepository
	Lineage() LineageRepository

	Close() error
}
