package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Catalog is the declarative set of plans and features kept in sync with the database.
type Catalog struct {
	Features []CatalogFeature `mapstructure:"features"`
	Plans    []CatalogPlan    `mapstructure:"plans"`
}

type CatalogFeature struct {
	Name        string `mapstructure:"name"`
	Fullname    string `mapstructure:"fullname"`
	Description string `mapstructure:"description"`
}

type CatalogPlan struct {
	Name          string               `mapstructure:"name"`
	Fullname      string               `mapstructure:"fullname"`
	Description   string               `mapstructure:"description"`
	Price         string               `mapstructure:"price"`
	Interval      string               `mapstructure:"interval"`
	IntervalCount int                  `mapstructure:"interval_count"`
	SortOrder     *int16               `mapstructure:"sort_order"`
	Features      []CatalogPlanFeature `mapstructure:"features"`
}

type CatalogPlanFeature struct {
	Name      string `mapstructure:"name"`
	Value     string `mapstructure:"value"`
	SortOrder *int16 `mapstructure:"sort_order"`
}

type CatalogHolder struct {
	current atomic.Value // holds Catalog

	mu        sync.Mutex
	listeners []func(Catalog)
}

// NewCatalogHolder reads catalog.yml and keeps it current through fsnotify.
// A missing file yields an empty catalog.
func NewCatalogHolder(cfg Config, log *zap.Logger) (*CatalogHolder, error) {
	v := viper.New()

	if cfg.CatalogPath != "" {
		v.SetConfigFile(cfg.CatalogPath)
	} else {
		v.SetConfigName("catalog")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/entitlements")
		v.AddConfigPath(".")
	}

	holder := &CatalogHolder{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		holder.current.Store(Catalog{})
		return holder, nil
	}

	catalog, err := decodeCatalog(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(catalog)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeCatalog(v)
		if err != nil {
			log.Warn("catalog reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("catalog reloaded", zap.String("file", e.Name))
		holder.notify(updated)
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticCatalogHolder wraps a fixed catalog.
func NewStaticCatalogHolder(catalog Catalog) *CatalogHolder {
	holder := &CatalogHolder{}
	holder.current.Store(catalog)
	return holder
}

func (h *CatalogHolder) Get() Catalog {
	return h.current.Load().(Catalog)
}

// OnChange registers fn to run after every successful reload.
func (h *CatalogHolder) OnChange(fn func(Catalog)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *CatalogHolder) notify(catalog Catalog) {
	h.mu.Lock()
	listeners := append([]func(Catalog){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(catalog)
	}
}

func decodeCatalog(v *viper.Viper) (Catalog, error) {
	var catalog Catalog
	if err := v.UnmarshalKey("catalog", &catalog); err != nil {
		return Catalog{}, err
	}
	if err := ValidateCatalog(catalog); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

// ValidateCatalog checks names are present and unique and plan features reference declared features.
func ValidateCatalog(catalog Catalog) error {
	features := make(map[string]struct{}, len(catalog.Features))
	for _, f := range catalog.Features {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return errors.New("catalog.features: name cannot be empty")
		}
		if _, ok := features[name]; ok {
			return fmt.Errorf("catalog.features: duplicate name %q", name)
		}
		features[name] = struct{}{}
	}

	plans := make(map[string]struct{}, len(catalog.Plans))
	for _, p := range catalog.Plans {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return errors.New("catalog.plans: name cannot be empty")
		}
		if _, ok := plans[name]; ok {
			return fmt.Errorf("catalog.plans: duplicate name %q", name)
		}
		plans[name] = struct{}{}
		for _, pf := range p.Features {
			if _, ok := features[strings.TrimSpace(pf.Name)]; !ok {
				return fmt.Errorf("catalog.plans[%s]: unknown feature %q", name, pf.Name)
			}
		}
	}
	return nil
}
