package stream

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/workanator/wrustlr/internal/apperr"
	"github.com/workanator/wrustlr/internal/config"
)

// Constructor builds a module instance. basePath is the resolved config
// xpath the module should read its own options relative to (see
// config.ModuleSpec.BasePath).
type Constructor func(doc *config.Document, basePath string) (Behavior, error)

type registration struct {
	category Category
	producer Constructor
	version  string
}

// Factory is a registry of module constructors keyed by name, grounded on
// original_source/src/lib/core/src/module/factory.rs. Each registration
// records its category and Produce rejects a request for another
// category; one name cannot be registered under two categories at once.
type Factory struct {
	mu  sync.RWMutex
	doc *config.Document
	log *logrus.Logger

	byName map[string]registration
}

// NewFactory builds a Factory that will hand doc to every constructor it
// invokes.
func NewFactory(doc *config.Document, log *logrus.Logger) *Factory {
	return &Factory{
		doc:    doc,
		log:    log,
		byName: make(map[string]registration),
	}
}

// Register adds a named constructor under category. Registering the same
// name twice replaces the previous registration.
func (f *Factory) Register(category Category, name, version string, producer Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byName[name] = registration{category: category, producer: producer, version: version}
	if f.log != nil {
		f.log.WithFields(logrus.Fields{
			"category": category,
			"module":   name,
			"version":  version,
		}).Info("registered module")
	}
}

// Produce instantiates the module registered under (category, name),
// reading its configuration relative to basePath.
func (f *Factory) Produce(category Category, name, basePath string) (Behavior, error) {
	f.mu.RLock()
	reg, ok := f.byName[name]
	f.mu.RUnlock()

	if !ok {
		return nil, apperr.Wrap(apperr.Module, "produce",
			fmt.Errorf("module %s:%s is not registered", category, name))
	}
	if reg.category != category {
		return nil, apperr.Wrap(apperr.Module, "produce",
			fmt.Errorf("module %s is registered under category %s, not %s", name, reg.category, category))
	}

	if f.log != nil {
		f.log.WithFields(logrus.Fields{
			"category": category,
			"module":   name,
			"base":     basePath,
		}).Debug("instantiating module")
	}

	behavior, err := reg.producer(f.doc, basePath)
	if err != nil {
		return nil, apperr.Wrap(apperr.Module, "produce "+name, err)
	}
	return behavior, nil
}
