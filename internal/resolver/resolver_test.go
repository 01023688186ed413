package resolver

import (
	"sync"
	"testing"

	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(attrs map[string]string) *model.Record {
	return &model.Record{ID: "r1", Attributes: attrs}
}

func TestResolveSubstitutesAttributes(t *testing.T) {
	r, err := New("${title}", "${body}")
	require.NoError(t, err)

	msg := r.Resolve(record(map[string]string{"title": "X", "body": "Disk full"}))
	assert.Equal(t, model.Message{Title: "X", Body: "Disk full"}, msg)
}

func TestResolveMixedLiteralAndPlaceholders(t *testing.T) {
	r, err := New("[${env}] ${title}", "host=${ host } says: ${body}")
	require.NoError(t, err)

	msg := r.Resolve(record(map[string]string{
		"env":   "prod",
		"title": "Alert",
		"host":  "db-1",
		"body":  "Disk full",
	}))
	assert.Equal(t, "[prod] Alert", msg.Title)
	assert.Equal(t, "host=db-1 says: Disk full", msg.Body)
}

func TestResolveMissingAttributeIsEmpty(t *testing.T) {
	r, err := New("before-${missing}-after", "${body}")
	require.NoError(t, err)

	msg := r.Resolve(record(map[string]string{"title": "ignored"}))
	assert.Equal(t, "before--after", msg.Title)
	assert.Equal(t, "", msg.Body)
}

func TestResolveNilRecordAttributes(t *testing.T) {
	r, err := New("${title}", "static body")
	require.NoError(t, err)

	assert.Equal(t, model.Message{Title: "", Body: "static body"}, r.Resolve(&model.Record{}))
	assert.Equal(t, model.Message{Title: "", Body: "static body"}, r.Resolve(nil))
}

func TestResolveDoesNotMutateRecord(t *testing.T) {
	r, err := New("${title}", "${body}")
	require.NoError(t, err)

	rec := record(map[string]string{"title": "a", "body": "b"})
	_ = r.Resolve(rec)
	assert.Equal(t, map[string]string{"title": "a", "body": "b"}, rec.Attributes)
}

func TestNewRejectsUnterminatedPlaceholder(t *testing.T) {
	_, err := New("${title", "${body}")
	assert.ErrorContains(t, err, "title template")

	_, err = New("${title}", "oops ${body")
	assert.ErrorContains(t, err, "body template")
}

func TestResolveConcurrent(t *testing.T) {
	r, err := New("${title}", "${body}")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := r.Resolve(record(map[string]string{"title": "t", "body": "b"}))
			assert.Equal(t, "t", msg.Title)
		}()
	}
	wg.Wait()
}

func TestReferences(t *testing.T) {
	assert.Equal(t, []string{"title", "env"}, References("${title} ${ env } ${title}"))
	assert.Nil(t, References("no placeholders"))
	assert.Equal(t, []string{"a"}, References("${a} ${unterminated"))
}
