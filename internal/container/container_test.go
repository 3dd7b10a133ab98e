package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"legal-rag-service/internal/apierrors"
	"legal-rag-service/internal/config"
)

func TestBuildRejectsUnsupportedVectorDBType(t *testing.T) {
	settings := config.Load()
	settings.VectorDBType = "chroma"

	c, err := Build(context.Background(), settings, zap.NewNop(), nil)
	require.Error(t, err)
	assert.Nil(t, c)

	var lae *apierrors.LegalAIError
	require.ErrorAs(t, err, &lae)
	assert.Equal(t, apierrors.CodeConfiguration, lae.Code)
}
