package dynamodb

import "time"

type Config struct {
	Region       string        `env:"AWS_REGION" envDefault:"us-east-1"`        // Region of the table.
	Endpoint     string        `env:"DYNAMODB_ENDPOINT"`                        // Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	AccessKeyID  string        `env:"AWS_ACCESS_KEY_ID"`                        // AccessKeyID and SecretKey select static credentials when both are set.
	SecretKey    string        `env:"AWS_SECRET_ACCESS_KEY"`                    // SecretKey pairs with AccessKeyID.
	Table        string        `env:"DYNAMODB_TABLE" envDefault:"feature_flag"` // Table holds one item per feature.
	SetupTimeout time.Duration `env:"DYNAMODB_SETUP_TIMEOUT" envDefault:"5s"`   // SetupTimeout bounds the wait for a created table to become active.
	AutoSetup    bool          `env:"DYNAMODB_AUTO_SETUP" envDefault:"false"`   // AutoSetup creates the table on startup when it is missing.
}
