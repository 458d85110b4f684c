package fragment

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
)

func newTestDB(t *testing.T) *catalog.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := catalog.Open(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPipeline_IngestSplitsAndHashes(t *testing.T) {
	db := newTestDB(t)
	p, err := NewPipeline(4, EncapsulationSpec{Compressor: codec.CompressNone, Wrapper: codec.WrapIdentity}, nil)
	require.NoError(t, err)

	var sequence []catalog.Hash
	require.NoError(t, db.View(func(tx *catalog.Tx) error {
		var err error
		sequence, err = p.Ingest(context.Background(), bytes.NewReader([]byte("abcdefghij")), tx)
		return err
	}))

	require.Len(t, sequence, 3) // "abcd", "efgh", "ij"
	assert.Equal(t, 3, p.Cache.Len())
}

func TestPipeline_DedupsRepeatedChunkWithinStream(t *testing.T) {
	db := newTestDB(t)
	p, err := NewPipeline(4, EncapsulationSpec{Compressor: codec.CompressNone, Wrapper: codec.WrapIdentity}, nil)
	require.NoError(t, err)

	var sequence []catalog.Hash
	require.NoError(t, db.View(func(tx *catalog.Tx) error {
		var err error
		sequence, err = p.Ingest(context.Background(), bytes.NewReader([]byte("abcdabcd")), tx)
		return err
	}))

	require.Len(t, sequence, 2)
	assert.Equal(t, sequence[0], sequence[1])
	assert.Equal(t, 1, p.Cache.Len(), "repeated chunk must dedup within the pending buffer")

	flushed := p.Cache.FlushAll()
	require.Len(t, flushed, 1)
	assert.Equal(t, int64(2), flushed[0].Refcount)
}

func TestPipeline_BumpsRefcountForCatalogedFragment(t *testing.T) {
	db := newTestDB(t)
	p, err := NewPipeline(4, EncapsulationSpec{Compressor: codec.CompressNone, Wrapper: codec.WrapIdentity}, nil)
	require.NoError(t, err)

	var firstHash catalog.Hash
	require.NoError(t, db.Update(func(tx *catalog.Tx) error {
		seq, err := p.Ingest(context.Background(), bytes.NewReader([]byte("abcd")), tx)
		if err != nil {
			return err
		}
		firstHash = seq[0]
		// Simulate the resource builder committing this fragment as live.
		pending := p.Cache.FlushAll()
		require.Len(t, pending, 1)
		return tx.PutFragment(&catalog.Fragment{Hash: pending[0].Hash, Size: int64(len(pending[0].Body)), Refcount: pending[0].Refcount})
	}))

	require.NoError(t, db.Update(func(tx *catalog.Tx) error {
		seq, err := p.Ingest(context.Background(), bytes.NewReader([]byte("abcd")), tx)
		require.NoError(t, err)
		assert.Equal(t, firstHash, seq[0])
		assert.Equal(t, 0, p.Cache.Len(), "already-live fragment must not re-enter the pending buffer")

		f, err := tx.GetFragment(firstHash)
		require.NoError(t, err)
		assert.Equal(t, int64(2), f.Refcount)
		return nil
	}))
}

func TestPipeline_FlushesPendingMidIngest(t *testing.T) {
	db := newTestDB(t)
	p, err := NewPipeline(4, EncapsulationSpec{Compressor: codec.CompressNone, Wrapper: codec.WrapIdentity}, nil)
	require.NoError(t, err)

	var batches [][]PendingFragment
	p.MaxPending = 2
	p.Flush = func(_ context.Context, items []PendingFragment) error {
		batches = append(batches, items)
		return nil
	}

	require.NoError(t, db.View(func(tx *catalog.Tx) error {
		// 5 distinct chunks against a threshold of 2: the buffer must
		// flush twice during the read, leaving only the tail pending.
		_, err := p.Ingest(context.Background(), bytes.NewReader([]byte("aaaabbbbccccddddeeee")), tx)
		return err
	}))

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Equal(t, 1, p.Cache.Len(), "the tail below the threshold stays for the caller to drain")
}

func TestPipeline_FlushErrorAbortsIngest(t *testing.T) {
	db := newTestDB(t)
	p, err := NewPipeline(4, EncapsulationSpec{Compressor: codec.CompressNone, Wrapper: codec.WrapIdentity}, nil)
	require.NoError(t, err)

	sealFailed := errors.New("seal failed")
	p.MaxPending = 1
	p.Flush = func(context.Context, []PendingFragment) error { return sealFailed }

	require.NoError(t, db.View(func(tx *catalog.Tx) error {
		_, err := p.Ingest(context.Background(), bytes.NewReader([]byte("aaaabbbb")), tx)
		assert.ErrorIs(t, err, sealFailed)
		return nil
	}))
}

func TestPipeline_InvalidFragmentSize(t *testing.T) {
	_, err := NewPipeline(0, EncapsulationSpec{}, nil)
	assert.ErrorIs(t, err, ErrInvalidFragmentSize)
}
