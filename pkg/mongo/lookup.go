package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/featureflag/pkg/feature"
)

// Collection is the subset of *mongo.Collection the lookup uses.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

type flagDocument struct {
	ID         string  `bson:"_id"`
	Percentage float64 `bson:"percentage"`
}

// Lookup keeps one {_id: <feature id>, percentage: <double>} document per feature.
type Lookup struct {
	coll Collection
}

func NewLookup(coll Collection) (*Lookup, error) {
	if coll == nil {
		return nil, errors.Join(feature.ErrMissingConfiguration, ErrNilCollection)
	}
	return &Lookup{coll: coll}, nil
}

func (l *Lookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	var raw bson.Raw
	err := l.coll.FindOne(ctx, bson.D{{Key: "_id", Value: featureID}}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, feature.Unavailable(err)
	}

	p, err := percentageOf(raw)
	if err != nil {
		return 0, false, errors.Join(feature.ErrInvalidRecord, fmt.Errorf("document %q: %w", featureID, err))
	}
	return p, true, nil
}

// percentageOf accepts any numeric type so documents edited by hand with
// integer literals still decode.
func percentageOf(raw bson.Raw) (float64, error) {
	val, err := raw.LookupErr("percentage")
	if err != nil {
		return 0, err
	}
	switch val.Type {
	case bson.TypeDouble:
		return val.Double(), nil
	case bson.TypeInt32:
		return float64(val.Int32()), nil
	case bson.TypeInt64:
		return float64(val.Int64()), nil
	}
	return 0, fmt.Errorf("percentage has bson type %s", val.Type)
}

func (l *Lookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	if err := feature.ValidatePercentage(percentage); err != nil {
		return false, err
	}
	res, err := l.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: featureID}},
		flagDocument{ID: featureID, Percentage: percentage},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return false, feature.Unavailable(err)
	}
	return res.MatchedCount > 0 || res.UpsertedCount > 0, nil
}

func (l *Lookup) DeletePercentage(ctx context.Context, featureID string) error {
	if _, err := l.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: featureID}}); err != nil {
		return feature.Unavailable(err)
	}
	return nil
}
