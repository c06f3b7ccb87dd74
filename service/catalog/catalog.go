package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/lakeflow/model"
	"github.com/viant/lakeflow/service/meta"
)

// ErrTableNotFound is returned when table is not registered
var ErrTableNotFound = errors.New("catalog: table not found")

// Definition represents catalog document
type Definition struct {
	Tables []*model.Table `json:"tables" yaml:"tables"`
}

// Catalog represents an in-memory table registry
type Catalog struct {
	environment string
	mu          sync.RWMutex
	tables      map[string]*model.Table
}

func key(database, table string) string {
	return database + "." + table
}

// Register registers tables, replacing existing ones
func (c *Catalog) Register(tables ...*model.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, table := range tables {
		c.tables[key(table.Database, table.Name)] = table
	}
}

// RegisterStack registers tables declared by a stack
func (c *Catalog) RegisterStack(stack model.Stack) {
	c.Register(stack.DeclaredTables()...)
}

// Table returns registered table
func (c *Catalog) Table(database, table string) (*model.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ret, ok := c.tables[key(database, table)]
	if !ok {
		return nil, fmt.Errorf("%w: %v.%v", ErrTableNotFound, database, table)
	}
	return ret, nil
}

// GetTableLocation returns table storage location in the catalog environment
func (c *Catalog) GetTableLocation(ctx context.Context, database, table string) (string, error) {
	aTable, err := c.Table(database, table)
	if err != nil {
		return "", err
	}
	return aTable.Location(c.environment), nil
}

// Tables returns registered tables sorted by database and name
func (c *Catalog) Tables() []*model.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*model.Table, 0, len(c.tables))
	for _, table := range c.tables {
		result = append(result, table)
	}
	sort.Slice(result, func(i, j int) bool {
		return key(result[i].Database, result[i].Name) < key(result[j].Database, result[j].Name)
	})
	return result
}

// Load loads tables from YAML or JSON document
func (c *Catalog) Load(ctx context.Context, metaService *meta.Service, URL string) error {
	definition := &Definition{}
	if err := metaService.Load(ctx, URL, definition); err != nil {
		return err
	}
	for _, table := range definition.Tables {
		if table.Name == "" || table.Database == "" {
			return fmt.Errorf("invalid catalog %v: table name and database are required", URL)
		}
	}
	c.Register(definition.Tables...)
	return nil
}

// Environment returns catalog environment
func (c *Catalog) Environment() string {
	return c.environment
}

// New creates a catalog for the deployment environment
func New(environment string, tables ...*model.Table) *Catalog {
	ret := &Catalog{environment: environment, tables: map[string]*model.Table{}}
	ret.Register(tables...)
	return ret
}
