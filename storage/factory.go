package storage

import (
	"github.com/pkg/errors"
)

// Driver is a name of the Store implementation.
type Driver string

// Supported drivers.
const (
	DriverMemory  Driver = "memory"
	DriverBolt    Driver = "bolt"
	DriverLevelDB Driver = "leveldb"
	DriverBadger  Driver = "badger"
	DriverRedis   Driver = "redis"
)

type (
	// Options describe a store to open.
	Options struct {
		// Driver selects the implementation.
		Driver Driver `yaml:"driver"`
		// Path is a file (bolt) or a directory (leveldb, badger).
		Path string `yaml:"path"`
		// Redis is used by the redis driver only.
		Redis RedisOptions `yaml:"redis"`
	}

	// RedisOptions contain Redis connection parameters.
	RedisOptions struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	}
)

// Validate checks that options are sufficient to open a store.
func (o Options) Validate() error {
	switch o.Driver {
	case DriverMemory:
		return nil
	case DriverBolt, DriverLevelDB:
		if o.Path == "" {
			return errors.Errorf("%s store requires a path", o.Driver)
		}
		return nil
	case DriverBadger:
		return nil
	case DriverRedis:
		if o.Redis.Address == "" {
			return errors.New("redis store requires an address")
		}
		return nil
	case "":
		return errors.New("store driver can't be empty")
	default:
		return errors.Errorf("unsupported store driver: %s", o.Driver)
	}
}

// Open opens a store described by o.
func Open(o Options) (Store, error) {
	if err := o.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid store options")
	}

	switch o.Driver {
	case DriverBolt:
		return NewBoltStore(o.Path)
	case DriverLevelDB:
		return NewLevelDBStore(o.Path)
	case DriverBadger:
		return NewBadgerStore(o.Path)
	case DriverRedis:
		return NewRedisStore(o.Redis)
	default:
		return NewMemoryStore(), nil
	}
}
