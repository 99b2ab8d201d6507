package storage

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKey(t *testing.T) {
	assert.Equal(t, "u-1/a-2.json", ReportKey("u-1", "a-2"))
	assert.Equal(t, "a%2Fb/x.json", ReportKey("a/b", "x"))
}

func TestObjectURL(t *testing.T) {
	cli, err := minio.New("minio.local:9000", &minio.Options{
		Creds: credentials.NewStaticV4("k", "s", ""),
	})
	require.NoError(t, err)

	s := newStore(cli, Options{Bucket: "reports"})
	assert.Equal(t, "http://minio.local:9000/reports/u/a.json", s.objectURL("u/a.json"))
}
