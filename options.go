package grader

// DefaultTable is the relational table holding vehicle records.
const DefaultTable = "AllCars"

// DefaultResourcePrefix is the root key prefix for supplemental group files.
const DefaultResourcePrefix = "ResourceFiles"

// DefaultFetchConcurrency bounds concurrent summary fetches per request.
const DefaultFetchConcurrency = 4

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithTable sets the table name queried by the catalog.
// The name is validated by NewCatalog.
func WithTable(name string) CatalogOption {
	return func(c *Catalog) {
		c.table = name
	}
}

// SupplementsOption configures Supplements.
type SupplementsOption func(*Supplements)

// WithResourcePrefix sets the root key prefix for group files.
func WithResourcePrefix(prefix string) SupplementsOption {
	return func(s *Supplements) {
		s.prefix = prefix
	}
}

// WithFetchConcurrency bounds concurrent blob reads for a single request.
// Values below 1 fall back to DefaultFetchConcurrency.
func WithFetchConcurrency(n int) SupplementsOption {
	return func(s *Supplements) {
		s.concurrency = n
	}
}
