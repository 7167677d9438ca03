package cluster

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/feature"
)

// Artifact layout, little endian:
//
//	magic "SNAI" | format u8 | name len u8 | table name | k u8 | dim u16 | k*dim float64
//
// The ai cluster index lives in a separate one-byte record.
const (
	artifactMagic   = "SNAI"
	artifactFormat  = 1
	maxArtifactSize = 1 << 20
)

// Artifact is a decoded model artifact whose feature table is not yet resolved.
type Artifact struct {
	Table     string
	Centroids [][]float64
}

// EncodeArtifact serializes the model centroids and feature table name.
func EncodeArtifact(m *Model) []byte {
	name := m.table.Name()
	dim := m.table.Len()

	var buf bytes.Buffer
	buf.Grow(len(artifactMagic) + 3 + len(name) + 2 + K*dim*8)
	buf.WriteString(artifactMagic)
	buf.WriteByte(artifactFormat)
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	buf.WriteByte(K)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(dim))
	for _, c := range m.centroids {
		for _, x := range c {
			_ = binary.Write(&buf, binary.LittleEndian, math.Float64bits(x))
		}
	}
	return buf.Bytes()
}

// DecodeArtifact parses a binary artifact.
func DecodeArtifact(data []byte) (Artifact, error) {
	if len(data) > maxArtifactSize {
		return Artifact{}, fmt.Errorf("%w: %d bytes exceeds limit", domain.ErrInvalidArtifact, len(data))
	}

	r := bytes.NewReader(data)
	magic := make([]byte, len(artifactMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != artifactMagic {
		return Artifact{}, fmt.Errorf("%w: bad magic", domain.ErrInvalidArtifact)
	}

	var hdr struct {
		Format  uint8
		NameLen uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Artifact{}, fmt.Errorf("%w: header: %v", domain.ErrInvalidArtifact, err)
	}
	if hdr.Format != artifactFormat {
		return Artifact{}, fmt.Errorf("%w: unsupported format %d", domain.ErrInvalidArtifact, hdr.Format)
	}

	name := make([]byte, hdr.NameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return Artifact{}, fmt.Errorf("%w: table name: %v", domain.ErrInvalidArtifact, err)
	}

	var shape struct {
		K   uint8
		Dim uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &shape); err != nil {
		return Artifact{}, fmt.Errorf("%w: shape: %v", domain.ErrInvalidArtifact, err)
	}
	if shape.K != K {
		return Artifact{}, fmt.Errorf("%w: expected %d centroids, got %d", domain.ErrInvalidModel, K, shape.K)
	}
	if want := int(shape.K) * int(shape.Dim) * 8; r.Len() != want {
		return Artifact{}, fmt.Errorf("%w: expected %d centroid bytes, got %d", domain.ErrInvalidArtifact, want, r.Len())
	}

	a := Artifact{Table: string(name), Centroids: make([][]float64, shape.K)}
	for i := range a.Centroids {
		c := make([]float64, shape.Dim)
		if err := binary.Read(r, binary.LittleEndian, c); err != nil {
			return Artifact{}, fmt.Errorf("%w: centroid %d: %v", domain.ErrInvalidArtifact, i, err)
		}
		a.Centroids[i] = c
	}
	return a, nil
}

// Model resolves the feature table and validates the centroids against it.
func (a Artifact) Model(aiCluster int) (*Model, error) {
	table, err := feature.Lookup(a.Table)
	if err != nil {
		return nil, err
	}
	return NewModel(table, a.Centroids, aiCluster)
}

// EncodeAICluster serializes the ai cluster index as a single byte.
func EncodeAICluster(i int) []byte {
	return []byte{byte(i)}
}

// DecodeAICluster parses a one-byte ai cluster record.
func DecodeAICluster(data []byte) (int, error) {
	if len(data) != 1 {
		return 0, fmt.Errorf("%w: record must be 1 byte, got %d", domain.ErrInvalidAICluster, len(data))
	}
	if data[0] >= K {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidAICluster, data[0])
	}
	return int(data[0]), nil
}

// Load decodes an artifact and its ai cluster record into a validated model.
func Load(artifact, aiCluster []byte) (*Model, error) {
	a, err := DecodeArtifact(artifact)
	if err != nil {
		return nil, err
	}
	idx, err := DecodeAICluster(aiCluster)
	if err != nil {
		return nil, err
	}
	return a.Model(idx)
}

// CentroidDoc is the JSON form an external trainer emits.
type CentroidDoc struct {
	FeatureTable string      `json:"feature_table"`
	Centroids    [][]float64 `json:"centroids"`
	AICluster    int         `json:"ai_cluster"`
}

// ParseCentroidDoc decodes a JSON centroid document into a validated model.
func ParseCentroidDoc(data []byte) (*Model, error) {
	var doc CentroidDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: centroid doc: %v", domain.ErrInvalidArtifact, err)
	}
	if doc.FeatureTable == "" {
		doc.FeatureTable = feature.V1Name
	}
	return Artifact{Table: doc.FeatureTable, Centroids: doc.Centroids}.Model(doc.AICluster)
}

// Doc returns the JSON form of m.
func (m *Model) Doc() CentroidDoc {
	return CentroidDoc{
		FeatureTable: m.table.Name(),
		Centroids:    m.Centroids(),
		AICluster:    m.aiCluster,
	}
}
