package vectorstore

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ragbot/ragbot/internal/domain"
)

// On-disk artifact names. The two files are written together and read
// together; a count mismatch between them is treated as corruption.
const (
	vectorsFile = "vectors.bin"
	chunksFile  = "chunks.json"
)

const (
	vectorsMagic   = uint32(0x52474256) // "RGBV"
	vectorsVersion = uint32(1)
	chunksVersion  = 1
)

type vectorsHeader struct {
	Magic     uint32
	Version   uint32
	Dimension uint32
	Count     uint32
}

type chunksEnvelope struct {
	Version int            `json:"version"`
	Chunks  []domain.Chunk `json:"chunks"`
}

// saveLocked writes both artifacts. Callers must hold the write lock.
func (s *Store) saveLocked() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	dim := 0
	if len(s.vectors) > 0 {
		dim = len(s.vectors[0])
	}

	var buf bytes.Buffer
	header := vectorsHeader{
		Magic:     vectorsMagic,
		Version:   vectorsVersion,
		Dimension: uint32(dim),
		Count:     uint32(len(s.vectors)),
	}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to encode vector header: %w", err)
	}
	for _, v := range s.vectors {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to encode vectors: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.dataDir, vectorsFile), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write vector artifact: %w", err)
	}

	envelope := chunksEnvelope{Version: chunksVersion, Chunks: s.chunks}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode chunk metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dataDir, chunksFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write chunk artifact: %w", err)
	}
	return nil
}

// load restores the store from disk. Missing artifacts mean a fresh index;
// anything unreadable or inconsistent degrades to an empty index with a
// logged warning.
func (s *Store) load() {
	vectors, chunks, err := s.readArtifacts()
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		s.logger.Warn("failed to load index artifacts, starting with empty index", zap.Error(err))
		return
	}

	s.vectors = vectors
	s.chunks = chunks
	s.logger.Info("loaded existing index", zap.Int("vectors", len(vectors)))
}

func (s *Store) readArtifacts() ([][]float32, []domain.Chunk, error) {
	vecData, err := os.ReadFile(filepath.Join(s.dataDir, vectorsFile))
	if err != nil {
		return nil, nil, err
	}
	chunkData, err := os.ReadFile(filepath.Join(s.dataDir, chunksFile))
	if err != nil {
		return nil, nil, err
	}

	buf := bytes.NewReader(vecData)
	var header vectorsHeader
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to decode vector header: %w", err)
	}
	if header.Magic != vectorsMagic {
		return nil, nil, fmt.Errorf("unrecognized vector artifact magic %#x", header.Magic)
	}
	if header.Version != vectorsVersion {
		return nil, nil, fmt.Errorf("unsupported vector artifact version %d", header.Version)
	}

	vectors := make([][]float32, header.Count)
	for i := range vectors {
		v := make([]float32, header.Dimension)
		if err := binary.Read(buf, binary.LittleEndian, v); err != nil {
			return nil, nil, fmt.Errorf("failed to decode vector %d: %w", i, err)
		}
		vectors[i] = v
	}

	var envelope chunksEnvelope
	if err := json.Unmarshal(chunkData, &envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
	}
	if envelope.Version != chunksVersion {
		return nil, nil, fmt.Errorf("unsupported chunk artifact version %d", envelope.Version)
	}
	if len(envelope.Chunks) != len(vectors) {
		return nil, nil, fmt.Errorf("artifact count mismatch: %d vectors, %d chunks",
			len(vectors), len(envelope.Chunks))
	}

	return vectors, envelope.Chunks, nil
}

func (s *Store) removeArtifacts() error {
	for _, name := range []string{vectorsFile, chunksFile} {
		if err := os.Remove(filepath.Join(s.dataDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}
