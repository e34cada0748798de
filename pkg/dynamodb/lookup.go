package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrymomot/featureflag/pkg/feature"
)

const (
	attrFeatureID  = "feature_id"
	attrPercentage = "percentage"
)

// Lookup keeps one item per feature: feature_id (S, hash key) and
// percentage (N).
type Lookup struct {
	client Client
	table  string
}

func NewLookup(client Client, table string) (*Lookup, error) {
	if client == nil {
		return nil, errors.Join(feature.ErrMissingConfiguration, ErrNilClient)
	}
	if table == "" {
		table = "feature_flag"
	}
	return &Lookup{client: client, table: table}, nil
}

func (l *Lookup) itemKey(featureID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrFeatureID: &types.AttributeValueMemberS{Value: featureID},
	}
}

func (l *Lookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(l.table),
		Key:                  l.itemKey(featureID),
		ProjectionExpression: aws.String(attrPercentage),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return 0, false, feature.Unavailable(err)
	}
	if len(out.Item) == 0 {
		return 0, false, nil
	}

	n, ok := out.Item[attrPercentage].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false, errors.Join(feature.ErrInvalidRecord,
			fmt.Errorf("item %q: %s is not a number attribute", featureID, attrPercentage))
	}
	p, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, false, errors.Join(feature.ErrInvalidRecord, fmt.Errorf("item %q: %w", featureID, err))
	}
	return p, true, nil
}

func (l *Lookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	if err := feature.ValidatePercentage(percentage); err != nil {
		return false, err
	}
	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			attrFeatureID:  &types.AttributeValueMemberS{Value: featureID},
			attrPercentage: &types.AttributeValueMemberN{Value: strconv.FormatFloat(percentage, 'g', -1, 64)},
		},
	})
	if err != nil {
		return false, feature.Unavailable(err)
	}
	return true, nil
}

func (l *Lookup) DeletePercentage(ctx context.Context, featureID string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.table),
		Key:       l.itemKey(featureID),
	})
	if err != nil {
		return feature.Unavailable(err)
	}
	return nil
}
