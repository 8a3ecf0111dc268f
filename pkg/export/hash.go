package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

// HashAlgorithm identifies the hashing algorithm used for run hashes.
const HashAlgorithm = "SHA-256"

// RunConfig holds the inputs that determine a fit's reproducibility
// signature: model, start point, prior, sampler settings, seed and data.
type RunConfig struct {
	// ToolVersion is the version of spectrafit used.
	ToolVersion string `json:"tool_version"`

	// Model is the registry name of the fitted model.
	Model string `json:"model"`

	Labels []string  `json:"labels"`
	P0     []float64 `json:"p0"`

	// Prior is a canonical description of the log-prior terms.
	Prior string `json:"prior"`

	Walkers   int    `json:"walkers"`
	BurnSteps int    `json:"burn_steps"`
	Steps     int    `json:"steps"`
	Seed      uint64 `json:"seed"`

	// StretchScale is the effective stretch-move scale.
	StretchScale float64 `json:"stretch_scale"`

	// DataSHA256 is the hex digest of the input data file.
	DataSHA256 string `json:"data_sha256,omitempty"`

	// Parameters holds additional settings as key-value pairs.
	// Keys are sorted alphabetically during hashing.
	Parameters map[string]string `json:"parameters,omitempty"`
}

// RunHash is a computed hash with its metadata. RunID is unique per
// invocation; Hash depends only on Config.
type RunHash struct {
	RunID      string     `json:"run_id"`
	Hash       string     `json:"hash"`
	Algorithm  string     `json:"algorithm"`
	ComputedAt time.Time  `json:"computed_at"`
	Config     *RunConfig `json:"config"`
}

// HashBuilder constructs run hashes.
type HashBuilder struct {
	config *RunConfig
}

// NewHashBuilder creates a new HashBuilder with an empty configuration.
func NewHashBuilder() *HashBuilder {
	return &HashBuilder{
		config: &RunConfig{
			Parameters: make(map[string]string),
		},
	}
}

// WithToolVersion sets the tool version.
func (hb *HashBuilder) WithToolVersion(version string) *HashBuilder {
	hb.config.ToolVersion = version
	return hb
}

// WithModel sets the model name, parameter labels and initial vector.
func (hb *HashBuilder) WithModel(name string, labels []string, p0 []float64) *HashBuilder {
	hb.config.Model = name
	hb.config.Labels = append([]string(nil), labels...)
	hb.config.P0 = append([]float64(nil), p0...)
	return hb
}

// WithSampler sets the ensemble size, step counts and seed.
func (hb *HashBuilder) WithSampler(walkers, burnSteps, steps int, seed uint64) *HashBuilder {
	hb.config.Walkers = walkers
	hb.config.BurnSteps = burnSteps
	hb.config.Steps = steps
	hb.config.Seed = seed
	return hb
}

// WithPrior sets the canonical prior description.
func (hb *HashBuilder) WithPrior(prior string) *HashBuilder {
	hb.config.Prior = prior
	return hb
}

// WithStretchScale sets the stretch-move scale.
func (hb *HashBuilder) WithStretchScale(a float64) *HashBuilder {
	hb.config.StretchScale = a
	return hb
}

// WithData sets the digest of the input data.
func (hb *HashBuilder) WithData(digest string) *HashBuilder {
	hb.config.DataSHA256 = digest
	return hb
}

// WithParameter adds a configuration parameter.
func (hb *HashBuilder) WithParameter(key, value string) *HashBuilder {
	if hb.config.Parameters == nil {
		hb.config.Parameters = make(map[string]string)
	}
	hb.config.Parameters[key] = value
	return hb
}

// Build computes the run hash and assigns a fresh run ID.
func (hb *HashBuilder) Build() *RunHash {
	return &RunHash{
		RunID:      uuid.New().String(),
		Hash:       computeHash(hb.config),
		Algorithm:  HashAlgorithm,
		ComputedAt: time.Now().UTC(),
		Config:     hb.config,
	}
}

// computeHash hashes a canonical "key:value|" rendering of the config.
func computeHash(config *RunConfig) string {
	var sb strings.Builder

	field := func(key, value string) {
		sb.WriteString(key)
		sb.WriteString(":")
		sb.WriteString(value)
		sb.WriteString("|")
	}

	field("version", config.ToolVersion)
	field("model", config.Model)
	field("labels", strings.Join(config.Labels, ","))

	p0 := make([]string, len(config.P0))
	for i, v := range config.P0 {
		p0[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	field("p0", strings.Join(p0, ","))
	field("prior", config.Prior)

	field("walkers", strconv.Itoa(config.Walkers))
	field("burn", strconv.Itoa(config.BurnSteps))
	field("steps", strconv.Itoa(config.Steps))
	field("seed", strconv.FormatUint(config.Seed, 10))
	field("stretch", strconv.FormatFloat(config.StretchScale, 'g', -1, 64))
	field("data", config.DataSHA256)

	if len(config.Parameters) > 0 {
		keys := make([]string, 0, len(config.Parameters))
		for k := range config.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + config.Parameters[k]
		}
		field("params", strings.Join(pairs, ","))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 8 characters of the full hash.
func (rh *RunHash) ShortHash() string {
	if len(rh.Hash) >= 8 {
		return rh.Hash[:8]
	}
	return rh.Hash
}

// Verify recomputes the hash and reports whether it matches.
func (rh *RunHash) Verify() bool {
	if rh.Config == nil {
		return false
	}
	return computeHash(rh.Config) == rh.Hash
}

// ToJSON returns the run hash as indented JSON.
func (rh *RunHash) ToJSON() (string, error) {
	data, err := json.MarshalIndent(rh, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run hash: %w", err)
	}
	return string(data), nil
}

// HashFile returns the hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ferrors.WrapIO(err, ferrors.ErrIOReadFailed, "failed to open file for hashing").
			WithContext("path", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", ferrors.WrapIO(err, ferrors.ErrIOReadFailed, "failed to read file for hashing").
			WithContext("path", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
