package registry

// DocRegistry defines the interface for tracked-document state operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DocRegistry interface {
	UpsertDoc(d DocRow) error
	UpsertScanned(d DocRow) error
	DeleteDoc(path string) error
	GetDoc(path string) (*DocRow, error)
	ListDocs(limit, offset int, verdict, sort string) ([]DocRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	GetChecksum(path string) (string, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DocRegistry at compile time.
var _ DocRegistry = (*DB)(nil)
