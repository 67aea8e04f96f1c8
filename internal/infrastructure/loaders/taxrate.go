package loaders

import (
	"context"

	"github.com/flowforge/streamline/internal/domain/envelope"
	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	"github.com/flowforge/streamline/internal/ports"
)

type taxRateRecord struct {
	Name            string  `validate:"required"`
	Value           float64 `validate:"gte=0"`
	TaxCategoryCode string  `validate:"required"`
	ZoneCode        string  `validate:"required"`
}

// TaxRateSpec builds the Loader Spec for the "taxRate" entity type
// (scenario 3: missing zone → ZONE_NOT_FOUND). The zone lookup is a
// cross-entity check performed inside Validate, matching §9's note that
// validate() is pure/synchronous except when cross-entity checks are
// needed.
func TaxRateSpec(svc ports.EntityService) domainloader.Spec {
	return domainloader.Spec{
		Metadata: domainloader.Metadata{
			EntityType:          "taxRate",
			Name:                "Tax Rate",
			Category:            "Configuration",
			SupportedOperations: []domainloader.Operation{domainloader.OpCreate, domainloader.OpUpdate, domainloader.OpUpsert, domainloader.OpDelete},
			LookupFields:        []string{"name"},
			RequiredFields:      []string{"name", "value", "taxCategoryCode", "zoneCode"},
		},
		Validate: func(ctx context.Context, record envelope.Envelope, _ domainloader.Operation) (domainloader.ValidationResult, error) {
			name, _ := record.Get("name")
			value, _ := record.Get("value")
			taxCategoryCode, _ := record.Get("taxCategoryCode")
			zoneCode, _ := record.Get("zoneCode")
			v, _ := asFloatValue(value)

			result := ValidateStruct(taxRateRecord{
				Name:            asLoaderString(name),
				Value:           v,
				TaxCategoryCode: asLoaderString(taxCategoryCode),
				ZoneCode:        asLoaderString(zoneCode),
			})
			if !result.Valid {
				return result, nil
			}

			_, found, err := svc.FindOne(ctx, "zone", "code", asLoaderString(zoneCode))
			if err != nil {
				return result, err
			}
			if !found {
				result.Valid = false
				result.Errors = append(result.Errors, domainloader.FieldErr("zoneCode", "ZONE_NOT_FOUND", "zone not found: "+asLoaderString(zoneCode)))
			}
			return result, nil
		},
		FindExisting: func(ctx context.Context, lookupFields []string, record envelope.Envelope) (*domainloader.Existing, error) {
			return findByFields(ctx, svc, "taxRate", lookupFields, record)
		},
		CreateEntity: func(ctx context.Context, record envelope.Envelope) (string, error) {
			return svc.Create(ctx, "taxRate", record.Data)
		},
		UpdateEntity: func(ctx context.Context, id string, record envelope.Envelope) error {
			return svc.Update(ctx, "taxRate", id, record.Data)
		},
		DeleteEntity: func(ctx context.Context, id string) error {
			return svc.Delete(ctx, "taxRate", id)
		},
	}
}

func asFloatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
