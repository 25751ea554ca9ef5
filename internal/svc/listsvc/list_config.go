package listsvc

// ListConfig contains configuration parameters for the list service.
type ListConfig struct {
	// StrictDelete makes DeleteItem fail with domain.ErrListItemNotFound when the
	// item id is not in the owner's list. By default such a delete is a no-op.
	StrictDelete bool `env:"STRICT_DELETE" default:"false"`
}
