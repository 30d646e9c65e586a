package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"moniftar/internal/storage"
	"moniftar/internal/storage/storagetest"
)

func TestMemoryRunner(t *testing.T) {
	suite.Run(t, &storagetest.RunnerSuite{
		NewRunner: func() storage.Runner { return New() },
	})
}
