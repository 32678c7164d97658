package lukchat

import (
	"github.com/spaolacci/murmur3"
)

func fetchID(data []byte) uint64 {
	return murmur3.Sum64(data)
}
