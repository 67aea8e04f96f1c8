package loaders

import (
	"context"
	"time"

	"github.com/flowforge/streamline/internal/domain/envelope"
	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	"github.com/flowforge/streamline/internal/ports"
)

type promotionRecord struct {
	Name string `validate:"required"`
}

// PromotionSpec builds the Loader Spec for the "promotion" entity type
// (scenario 4: endsAt <= startsAt is rejected with INVALID_DATE_RANGE).
func PromotionSpec(svc ports.EntityService) domainloader.Spec {
	return domainloader.Spec{
		Metadata: domainloader.Metadata{
			EntityType:          "promotion",
			Name:                "Promotion",
			Category:            "Commerce",
			SupportedOperations: []domainloader.Operation{domainloader.OpCreate, domainloader.OpUpdate, domainloader.OpUpsert, domainloader.OpDelete},
			LookupFields:        []string{"name"},
			RequiredFields:      []string{"name", "startsAt", "endsAt"},
		},
		Validate: func(_ context.Context, record envelope.Envelope, _ domainloader.Operation) (domainloader.ValidationResult, error) {
			name, _ := record.Get("name")
			result := ValidateStruct(promotionRecord{Name: asLoaderString(name)})

			startsAt, startOK := parseRecordTime(record, "startsAt")
			endsAt, endOK := parseRecordTime(record, "endsAt")
			if startOK && endOK && !endsAt.After(startsAt) {
				result.Valid = false
				result.Errors = append(result.Errors, domainloader.FieldErr("endsAt", "INVALID_DATE_RANGE", "end date must be after start date"))
			}
			return result, nil
		},
		FindExisting: func(ctx context.Context, lookupFields []string, record envelope.Envelope) (*domainloader.Existing, error) {
			return findByFields(ctx, svc, "promotion", lookupFields, record)
		},
		CreateEntity: func(ctx context.Context, record envelope.Envelope) (string, error) {
			return svc.Create(ctx, "promotion", record.Data)
		},
		UpdateEntity: func(ctx context.Context, id string, record envelope.Envelope) error {
			return svc.Update(ctx, "promotion", id, record.Data)
		},
		DeleteEntity: func(ctx context.Context, id string) error {
			return svc.Delete(ctx, "promotion", id)
		},
	}
}

func parseRecordTime(record envelope.Envelope, field string) (time.Time, bool) {
	v, ok := record.Get(field)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, t)
			if err != nil {
				return time.Time{}, false
			}
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
