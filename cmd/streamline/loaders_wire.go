package main

import (
	"github.com/flowforge/streamline/internal/infrastructure/loaders"
	"github.com/flowforge/streamline/internal/ports"
)

// registerLoaderSpecs populates registry with every named entity loader
// this runtime ships, each bound to the same backing EntityService.
func registerLoaderSpecs(registry *loaders.Registry, entities ports.EntityService) {
	registry.Register(loaders.ProductSpec(entities))
	registry.Register(loaders.VariantSpec(entities))
	registry.Register(loaders.CustomerSpec(entities))
	registry.Register(loaders.OrderSpec(entities))
	registry.Register(loaders.PaymentMethodSpec(entities))
	registry.Register(loaders.AssetSpec(entities))
	registry.Register(loaders.PromotionSpec(entities))
	registry.Register(loaders.TaxRateSpec(entities))
}
