package loaders

import (
	"context"

	"github.com/flowforge/streamline/internal/domain/envelope"
	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	"github.com/flowforge/streamline/internal/ports"
)

type productRecord struct {
	SKU  string `validate:"required"`
	Name string `validate:"required"`
}

// ProductSpec builds the Loader Spec for the "product" entity type,
// looked up by sku (scenario 1: single-record CSV → product upsert).
func ProductSpec(svc ports.EntityService) domainloader.Spec {
	return domainloader.Spec{
		Metadata: domainloader.Metadata{
			EntityType:          "product",
			Name:                "Product",
			Category:            "Products",
			SupportedOperations: []domainloader.Operation{domainloader.OpCreate, domainloader.OpUpdate, domainloader.OpUpsert, domainloader.OpDelete},
			LookupFields:        []string{"sku"},
			RequiredFields:      []string{"sku", "name"},
		},
		Validate: func(_ context.Context, record envelope.Envelope, _ domainloader.Operation) (domainloader.ValidationResult, error) {
			sku, _ := record.Get("sku")
			name, _ := record.Get("name")
			return ValidateStruct(productRecord{SKU: asLoaderString(sku), Name: asLoaderString(name)}), nil
		},
		FindExisting: func(ctx context.Context, lookupFields []string, record envelope.Envelope) (*domainloader.Existing, error) {
			return findByFields(ctx, svc, "product", lookupFields, record)
		},
		CreateEntity: func(ctx context.Context, record envelope.Envelope) (string, error) {
			return svc.Create(ctx, "product", record.Data)
		},
		UpdateEntity: func(ctx context.Context, id string, record envelope.Envelope) error {
			return svc.Update(ctx, "product", id, record.Data)
		},
		DeleteEntity: func(ctx context.Context, id string) error {
			return svc.Delete(ctx, "product", id)
		},
	}
}

func asLoaderString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// findByFields tries each lookup field in priority order, returning the
// first hit — the "by unique code, by id, by name, or domain-specific
// variant" strategy priority order named in §4.3.
func findByFields(ctx context.Context, svc ports.EntityService, entityType string, lookupFields []string, record envelope.Envelope) (*domainloader.Existing, error) {
	for _, field := range lookupFields {
		value, ok := record.Get(field)
		if !ok || value == nil {
			continue
		}
		entity, found, err := svc.FindOne(ctx, entityType, field, value)
		if err != nil {
			return nil, err
		}
		if found {
			id, _ := entity["id"].(string)
			return &domainloader.Existing{ID: id, Entity: entity}, nil
		}
	}
	return nil, nil
}
