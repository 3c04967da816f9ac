package driver

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryDB_Mutate(t *testing.T) {
	db := NewMemoryDB()

	_, ok := db.Get("u1")
	assert.False(t, ok)

	err := db.Mutate("u1", func(doc map[string][]byte, exists bool) (map[string][]byte, error) {
		assert.False(t, exists)
		doc["name"] = []byte("ada")
		return doc, nil
	})
	assert.NoError(t, err)

	doc, ok := db.Get("u1")
	assert.True(t, ok)
	assert.Equal(t, "ada", string(doc["name"]))

	// returned documents are copies
	doc["name"][0] = 'A'
	again, _ := db.Get("u1")
	assert.Equal(t, "ada", string(again["name"]))

	boom := errors.New("boom")
	err = db.Mutate("u1", func(doc map[string][]byte, exists bool) (map[string][]byte, error) {
		doc["name"] = []byte("lost")
		return nil, boom
	})
	assert.Equal(t, boom, err)
	again, _ = db.Get("u1")
	assert.Equal(t, "ada", string(again["name"]))
}

func TestMemoryDB_ConcurrentMutate(t *testing.T) {
	db := NewMemoryDB()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db.Mutate("counter", func(doc map[string][]byte, exists bool) (map[string][]byte, error) {
				doc["n"] = append(doc["n"], 'x')
				return doc, nil
			})
		}()
	}
	wg.Wait()
	doc, _ := db.Get("counter")
	assert.Len(t, doc["n"], 50)
}
