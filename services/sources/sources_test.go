package sources

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/config"
)

const jsonBatch = `[
  {
    "university_name": "Example University",
    "location": "Exampleton",
    "website_url": "https://example.ac.uk",
    "course_name": "Computer Science",
    "subject_area": "Computer Science",
    "qualification": "BSc",
    "duration_years": 3,
    "ucas_code": "X100",
    "course_url": "https://example.ac.uk/cs",
    "year": 2024,
    "entry_requirements": [
      {"requirement_type": "A-Level", "typical_offer": "AAA", "minimum_offer": "AAB",
       "subject_requirements": {"required": ["Mathematics"]}}
    ]
  }
]`

const yamlBatch = `
records:
  - university_name: Example University
    location: Exampleton
    course_name: Data Science
    subject_area: Computer Science
    qualification: BSc
    duration_years: 3
    entry_requirements:
      - requirement_type: A-Level
        typical_offer: ABB
        subject_requirements:
          required: [Mathematics]
`

func TestDecode(t *testing.T) {
	t.Run("json list", func(t *testing.T) {
		recs, err := Decode([]byte(jsonBatch))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "X100", recs[0].UcasCode)
		assert.Equal(t, []interface{}{"Mathematics"}, recs[0].EntryRequirements[0].SubjectRequirements["required"])
	})

	t.Run("json envelope", func(t *testing.T) {
		recs, err := Decode([]byte(`{"records": ` + jsonBatch + `}`))
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("yaml envelope", func(t *testing.T) {
		recs, err := Decode([]byte(yamlBatch))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Data Science", recs[0].CourseName)
		assert.Empty(t, recs[0].UcasCode)
		assert.Zero(t, recs[0].Year)
		assert.Equal(t, []interface{}{"Mathematics"}, recs[0].EntryRequirements[0].SubjectRequirements["required"])
	})

	t.Run("empty", func(t *testing.T) {
		recs, err := Decode([]byte("  \n"))
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Decode([]byte(`[{"university_name": 3`))
		assert.Error(t, err)
	})
}

func TestSampleSource(t *testing.T) {
	src := NewSampleSource()
	assert.Equal(t, "discover_uni", src.Name())

	recs, err := src.FetchBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 5)

	g400 := 0
	for _, r := range recs {
		if r.UcasCode == "G400" {
			g400++
		}
	}
	assert.Equal(t, 4, g400)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.FetchBatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBatch), 0o600))

	recs, err := NewFileSource(path).FetchBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = NewFileSource(filepath.Join(dir, "missing.json")).FetchBatch(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func fastHTTPSource(url string) *HTTPSource {
	src := NewHTTPSource(url, time.Second)
	src.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}
	return src
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, jsonBatch)
	}))
	defer srv.Close()

	recs, err := fastHTTPSource(srv.URL).FetchBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSource_ClientErrorIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fastHTTPSource(srv.URL).FetchBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type fakeS3 struct {
	body string
	err  error
	in   *s3.GetObjectInput
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(f.body))}, nil
}

func TestS3Source(t *testing.T) {
	fake := &fakeS3{body: `{"records": ` + jsonBatch + `}`}
	src := &S3Source{client: fake, bucket: "catalog", key: "courses.json"}

	recs, err := src.FetchBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, "catalog", aws.StringValue(fake.in.Bucket))
	assert.Equal(t, "courses.json", aws.StringValue(fake.in.Key))

	fake.err = errors.New("access denied")
	_, err = src.FetchBatch(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestRegistryFromConfig(t *testing.T) {
	reg, err := NewRegistryFromConfig(config.SourcesConfig{
		FilePath: "/tmp/courses.yaml",
		HTTPURL:  "http://localhost/courses",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"discover_uni", "file", "http"}, reg.Names())

	_, err = reg.Get("ucas")
	assert.ErrorIs(t, err, ErrNotRegistered)

	src, err := reg.Get("discover_uni")
	require.NoError(t, err)
	assert.Equal(t, "discover_uni", src.Name())
}
