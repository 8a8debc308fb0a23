package chain

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultName is the chain used when no reference is given.
	DefaultName = "STEEM"
	// DefaultAddressPrefix is used for explicit chain records that carry no prefix.
	DefaultAddressPrefix = "STM"
)

//go:embed chains.yaml
var builtinChains []byte

var validate = validator.New()

// Params describes a Graphene network. ChainID is mixed into every signing digest.
type Params struct {
	Name          string `yaml:"name" json:"name"`
	ChainID       string `yaml:"chain_id" json:"chain_id" validate:"required,hexadecimal,len=64"`
	AddressPrefix string `yaml:"address_prefix" json:"address_prefix" validate:"required,alpha"`
	CoreSymbol    string `yaml:"core_symbol" json:"core_symbol"`
}

// Validate checks the chain id and prefix.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChain, err)
	}
	return nil
}

// ChainIDBytes returns the decoded 32-byte chain id.
func (p Params) ChainIDBytes() ([]byte, error) {
	raw, err := hex.DecodeString(p.ChainID)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %w", ErrInvalidChain, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: chain id must be 32 bytes, got %d", ErrInvalidChain, len(raw))
	}
	return raw, nil
}

type registryFile struct {
	Default string   `yaml:"default"`
	Chains  []Params `yaml:"chains"`
}

// Registry maps chain names to their parameters. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	chains      map[string]Params
	defaultName string
}

// NewRegistry returns a registry holding the built-in STEEM, TESTNET and HIVE chains.
func NewRegistry() *Registry {
	r := &Registry{chains: make(map[string]Params), defaultName: DefaultName}
	if err := r.decode(bytes.NewReader(builtinChains)); err != nil {
		panic(fmt.Sprintf("built-in chains: %v", err))
	}
	return r
}

// Load merges the chains declared in the YAML file at path. Entries replace built-ins of the same name.
func (r *Registry) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := r.decode(f); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (r *Registry) decode(src io.Reader) error {
	var file registryFile
	if err := yaml.NewDecoder(src).Decode(&file); err != nil {
		return err
	}

	for _, p := range file.Chains {
		if p.Name == "" {
			return fmt.Errorf("%w: chain without a name", ErrInvalidChain)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("chain '%s': %w", p.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range file.Chains {
		r.chains[p.Name] = p
	}
	if file.Default != "" {
		r.defaultName = file.Default
	}
	return nil
}

// Register adds or replaces a chain.
func (r *Registry) Register(p Params) error {
	if p.Name == "" {
		return fmt.Errorf("%w: chain without a name", ErrInvalidChain)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[p.Name] = p
	return nil
}

// SetDefault changes the chain used for nil references.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chains[name]; !ok {
		return fmt.Errorf("%w: '%s'", ErrInvalidChain, name)
	}
	r.defaultName = name
	return nil
}

// Get returns the chain registered under name.
func (r *Registry) Get(name string) (Params, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.chains[name]
	return p, ok
}

// Names returns the registered chain names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns a chain reference into parameters. A reference is nil (the default chain),
// a registered name, a Params or *Params, or a map carrying a "chain_id" key and optionally
// "address_prefix" and "name". Anything else fails with ErrInvalidChain.
func (r *Registry) Resolve(ref any) (Params, error) {
	switch v := ref.(type) {
	case nil:
		r.mu.RLock()
		name := r.defaultName
		r.mu.RUnlock()
		return r.byName(name)
	case string:
		return r.byName(v)
	case Params:
		return fromRecord(v)
	case *Params:
		if v == nil {
			return Params{}, fmt.Errorf("%w: nil params", ErrInvalidChain)
		}
		return fromRecord(*v)
	case map[string]string:
		return fromRecord(Params{Name: v["name"], ChainID: v["chain_id"], AddressPrefix: v["address_prefix"]})
	case map[string]any:
		p := Params{}
		var ok bool
		if p.ChainID, ok = v["chain_id"].(string); !ok {
			return Params{}, fmt.Errorf("%w: record without a string chain_id", ErrInvalidChain)
		}
		p.Name, _ = v["name"].(string)
		p.AddressPrefix, _ = v["address_prefix"].(string)
		return fromRecord(p)
	default:
		return Params{}, fmt.Errorf("%w: unsupported reference of type %T", ErrInvalidChain, ref)
	}
}

func (r *Registry) byName(name string) (Params, error) {
	p, ok := r.Get(name)
	if !ok {
		return Params{}, fmt.Errorf("%w: unknown chain '%s'", ErrInvalidChain, name)
	}
	return p, nil
}

func fromRecord(p Params) (Params, error) {
	if p.AddressPrefix == "" {
		p.AddressPrefix = DefaultAddressPrefix
	}
	p.ChainID = strings.ToLower(p.ChainID)
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Resolve resolves ref against the process-wide registry.
func Resolve(ref any) (Params, error) { return defaultRegistry.Resolve(ref) }
