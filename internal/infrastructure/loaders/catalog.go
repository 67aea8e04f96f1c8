package loaders

import (
	"context"

	"github.com/flowforge/streamline/internal/domain/envelope"
	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	"github.com/flowforge/streamline/internal/ports"
)

// genericSpec builds a Loader Spec for an entity type whose validation is
// limited to required-field presence, used by the remaining named entity
// types (§1: variants, customers, orders, payment methods) that don't
// need the bespoke cross-entity or format checks product/asset/
// promotion/taxRate do.
func genericSpec(svc ports.EntityService, meta domainloader.Metadata) domainloader.Spec {
	return domainloader.Spec{
		Metadata: meta,
		Validate: func(_ context.Context, record envelope.Envelope, _ domainloader.Operation) (domainloader.ValidationResult, error) {
			result := domainloader.ValidationResult{Valid: true}
			for _, field := range meta.RequiredFields {
				if v, ok := record.Get(field); !ok || v == nil || v == "" {
					result.Valid = false
					result.Errors = append(result.Errors, domainloader.FieldErr(field, "REQUIRED", field+" is required"))
				}
			}
			return result, nil
		},
		FindExisting: func(ctx context.Context, lookupFields []string, record envelope.Envelope) (*domainloader.Existing, error) {
			return findByFields(ctx, svc, meta.EntityType, lookupFields, record)
		},
		CreateEntity: func(ctx context.Context, record envelope.Envelope) (string, error) {
			return svc.Create(ctx, meta.EntityType, record.Data)
		},
		UpdateEntity: func(ctx context.Context, id string, record envelope.Envelope) error {
			return svc.Update(ctx, meta.EntityType, id, record.Data)
		},
		DeleteEntity: func(ctx context.Context, id string) error {
			return svc.Delete(ctx, meta.EntityType, id)
		},
	}
}

// VariantSpec builds the Loader Spec for the "variant" entity type.
func VariantSpec(svc ports.EntityService) domainloader.Spec {
	return genericSpec(svc, domainloader.Metadata{
		EntityType:          "variant",
		Name:                "Product Variant",
		Category:            "Products",
		SupportedOperations: []domainloader.Operation{domainloader.OpCreate, domainloader.OpUpdate, domainloader.OpUpsert, domainloader.OpDelete},
		LookupFields:        []string{"sku"},
		RequiredFields:      []string{"sku", "productId"},
	})
}

// CustomerSpec builds the Loader Spec for the "customer" entity type.
func CustomerSpec(svc ports.EntityService) domainloader.Spec {
	return genericSpec(svc, domainloader.Metadata{
		EntityType:          "customer",
		Name:                "Customer",
		Category:            "Customers",
		SupportedOperations: []domainloader.Operation{domainloader.OpCreate, domainloader.OpUpdate, domainloader.OpUpsert},
		LookupFields:        []string{"emailAddress"},
		RequiredFields:      []string{"emailAddress"},
	})
}

// OrderSpec builds the Loader Spec for the "order" entity type.
func OrderSpec(svc ports.EntityService) domainloader.Spec {
	return genericSpec(svc, domainloader.Metadata{
		EntityType:          "order",
		Name:                "Order",
		Category:            "Commerce",
		SupportedOperations: []domainloader.Operation{domainloader.OpCreate, domainloader.OpUpdate, domainloader.OpUpsert},
		LookupFields:        []string{"code"},
		RequiredFields:      []string{"code"},
	})
}

// PaymentMethodSpec builds the Loader Spec for the "paymentMethod" entity
// type.
func PaymentMethodSpec(svc ports.EntityService) domainloader.Spec {
	return genericSpec(svc, domainloader.Metadata{
		EntityType:          "paymentMethod",
		Name:                "Payment Method",
		Category:            "Configuration",
		SupportedOperations: []domainloader.Operation{domainloader.OpCreate, domainloader.OpUpdate, domainloader.OpUpsert, domainloader.OpDelete},
		LookupFields:        []string{"code"},
		RequiredFields:      []string{"code", "handler"},
	})
}
