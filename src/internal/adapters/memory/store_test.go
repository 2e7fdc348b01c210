package memory

import (
	"testing"

	"github.com/anidex/anidex/src/internal/adapters/storetest"
	"github.com/anidex/anidex/src/internal/ports"
)

func TestInMemoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.EntityStore { return NewStore() })
}
