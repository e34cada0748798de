package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// ControlPlane inspects and creates the feature table.
type ControlPlane struct {
	client  Client
	table   string
	timeout time.Duration
}

// NewControlPlane returns a ControlPlane for table. A non-positive timeout
// waits up to five seconds for a new table to become active.
func NewControlPlane(client Client, table string, timeout time.Duration) (*ControlPlane, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if table == "" {
		table = "feature_flag"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ControlPlane{client: client, table: table, timeout: timeout}, nil
}

func (c *ControlPlane) describe(ctx context.Context) (*types.TableDescription, error) {
	out, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(c.table)})
	if err != nil {
		return nil, err
	}
	return out.Table, nil
}

// TableExists reports whether the table exists, in any status.
func (c *ControlPlane) TableExists(ctx context.Context) (bool, error) {
	_, err := c.describe(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsTableSetupCorrectly reports whether the table is keyed by a single
// string hash key named feature_id.
func (c *ControlPlane) IsTableSetupCorrectly(ctx context.Context) (bool, error) {
	table, err := c.describe(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if table == nil || len(table.KeySchema) != 1 {
		return false, nil
	}
	key := table.KeySchema[0]
	if aws.ToString(key.AttributeName) != attrFeatureID || key.KeyType != types.KeyTypeHash {
		return false, nil
	}
	for _, def := range table.AttributeDefinitions {
		if aws.ToString(def.AttributeName) == attrFeatureID {
			return def.AttributeType == types.ScalarAttributeTypeS, nil
		}
	}
	return false, nil
}

// SetupTable creates the table with on-demand billing and waits until it is
// active. An existing table is left as is.
func (c *ControlPlane) SetupTable(ctx context.Context) error {
	_, err := c.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(c.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrFeatureID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrFeatureID), KeyType: types.KeyTypeHash},
		},
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return err
	}

	waiter := dynamodb.NewTableExistsWaiter(c.client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = 100 * time.Millisecond
		o.MaxDelay = time.Second
	})
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(c.table)}, c.timeout); err != nil {
		return errors.Join(ErrTableNotReady, err)
	}
	return nil
}

// EnsureTable creates the table when missing and verifies its key schema.
func (c *ControlPlane) EnsureTable(ctx context.Context) error {
	exists, err := c.TableExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.SetupTable(ctx); err != nil {
			return err
		}
	}
	ok, err := c.IsTableSetupCorrectly(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTableMisconfigured
	}
	return nil
}

// Healthcheck returns a probe that describes the table.
func (c *ControlPlane) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := c.describe(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException"
}
