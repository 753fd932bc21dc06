package memory_test

import (
	"testing"

	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunRecordStoreContract(t, store)
}
