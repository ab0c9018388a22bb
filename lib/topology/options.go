package topology

import "time"

// Defaults applied by WithDefaults.
const (
	DefaultInstanceClass    = "t4g.micro"
	DefaultStorageGiB       = 20
	DefaultDatabasePort     = 5432
	DefaultRotationInterval = 24 * time.Hour
)

// RemovalPolicy is the teardown behaviour of stateful resources.
type RemovalPolicy string

const (
	RemovalPolicyDestroy  RemovalPolicy = "destroy"
	RemovalPolicyRetain   RemovalPolicy = "retain"
	RemovalPolicySnapshot RemovalPolicy = "snapshot"
)

// Options holds every recognised build option. It can be decoded from YAML,
// TOML or the environment.
type Options struct {
	ApplicationName            string `yaml:"applicationName" toml:"applicationName" env:"APP_NAME" validate:"required,max=63,rdsident"`
	AdministratorKeyReference  string `yaml:"administratorKeyReference" toml:"administratorKeyReference" env:"BASTION_KEY_PAIR_NAME" validate:"required"`
	AdministratorSourceAddress string `yaml:"administratorSourceAddress" toml:"administratorSourceAddress" env:"ADMIN_IP_ADDRESS" validate:"required"`

	InstanceClass    string        `yaml:"instanceClass,omitempty" toml:"instanceClass,omitempty" env:"DB_INSTANCE_CLASS"`
	StorageGiB       int           `yaml:"storageGiB,omitempty" toml:"storageGiB,omitempty" env:"DB_STORAGE_GIB" validate:"gte=20,lte=65536"`
	RotationInterval time.Duration `yaml:"rotationInterval,omitempty" toml:"rotationInterval,omitempty" env:"PASSWORD_ROTATION_INTERVAL" validate:"gte=4h,lte=24000h"`
	DatabasePort     int           `yaml:"databasePort,omitempty" toml:"databasePort,omitempty" env:"RDS_PORT" validate:"gte=1150,lte=65535"`
	RemovalPolicy    RemovalPolicy `yaml:"removalPolicy,omitempty" toml:"removalPolicy,omitempty" env:"REMOVAL_POLICY" validate:"oneof=destroy retain snapshot"`

	WithExposure          bool   `yaml:"withExposure,omitempty" toml:"withExposure,omitempty" env:"WITH_EXPOSURE"`
	ExposureSourceAddress string `yaml:"exposureSourceAddress,omitempty" toml:"exposureSourceAddress,omitempty" env:"EXPOSURE_SOURCE_ADDRESS" validate:"required_if=WithExposure true"`

	DisableFlowLogs bool `yaml:"disableFlowLogs,omitempty" toml:"disableFlowLogs,omitempty" env:"DISABLE_FLOW_LOGS"`
}

// WithDefaults returns a copy of o with every unset optional field filled in.
func (o Options) WithDefaults() Options {
	if o.InstanceClass == "" {
		o.InstanceClass = DefaultInstanceClass
	}
	if o.StorageGiB == 0 {
		o.StorageGiB = DefaultStorageGiB
	}
	if o.RotationInterval == 0 {
		o.RotationInterval = DefaultRotationInterval
	}
	if o.DatabasePort == 0 {
		o.DatabasePort = DefaultDatabasePort
	}
	if o.RemovalPolicy == "" {
		o.RemovalPolicy = RemovalPolicyDestroy
	}
	return o
}

// FlowLogsEnabled reports whether VPC flow logs are declared.
func (o Options) FlowLogsEnabled() bool {
	return !o.DisableFlowLogs
}
