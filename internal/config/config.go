package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"voxelnav/internal/blockprops"
)

// Config captures the tunable parameters needed to bootstrap a chunk server.
type Config struct {
	Server      ServerConfig      `json:"server" mapstructure:"server"`
	Chunk       ChunkConfig       `json:"chunk" mapstructure:"chunk"`
	Network     NetworkConfig     `json:"network" mapstructure:"network"`
	Pathfinding PathfindingConfig `json:"pathfinding" mapstructure:"pathfinding"`
	Terrain     TerrainConfig     `json:"terrain" mapstructure:"terrain"`
	Economy     EconomyConfig     `json:"economy" mapstructure:"economy"`
	Entities    EntityConfig      `json:"entities" mapstructure:"entities"`
	Blocks      []BlockConfig     `json:"blocks" mapstructure:"blocks"`
}

// BlockConfig is the on-disk form of one blockprops.Table entry (spec C1):
// the registry walk a real game client performs at world load, expressed as
// data so a deployment can override flags without a code change.
type BlockConfig struct {
	ID            string `json:"id" mapstructure:"id"`
	Kind          int    `json:"kind" mapstructure:"kind"`
	WalkOn        bool   `json:"walkOn" mapstructure:"walkOn"`
	WalkThrough   bool   `json:"walkThrough" mapstructure:"walkThrough"`
	FullyPassable bool   `json:"fullyPassable" mapstructure:"fullyPassable"`
	Water         bool   `json:"water" mapstructure:"water"`
	Lava          bool   `json:"lava" mapstructure:"lava"`
	AvoidBreak    bool   `json:"avoidBreak" mapstructure:"avoidBreak"`
	Climbable     bool   `json:"climbable" mapstructure:"climbable"`
	FallingBlock  bool   `json:"fallingBlock" mapstructure:"fallingBlock"`
	Fence         bool   `json:"fence" mapstructure:"fence"`
	Carpet        bool   `json:"carpet" mapstructure:"carpet"`
	Openable      bool   `json:"openable" mapstructure:"openable"`
}

// Table builds an internal/blockprops.Table from the configured block list,
// the data-driven equivalent of the registry walk spec §4.1 describes a real
// client performing once at world load.
func (c *Config) Table() *blockprops.Table {
	t := blockprops.NewTable()
	for _, b := range c.Blocks {
		t.Set(blockprops.Kind(b.Kind), blockprops.Flags{
			WalkOn:        b.WalkOn,
			WalkThrough:   b.WalkThrough,
			FullyPassable: b.FullyPassable,
			Water:         b.Water,
			Lava:          b.Lava,
			AvoidBreak:    b.AvoidBreak,
			Climbable:     b.Climbable,
			FallingBlock:  b.FallingBlock,
			Fence:         b.Fence,
			Carpet:        b.Carpet,
			Openable:      b.Openable,
		})
	}
	return t
}

type ServerConfig struct {
	ID                 string        `json:"id"`
	Description        string        `json:"description"`
	GlobalChunkOrigin  ChunkIndex    `json:"globalChunkOrigin"`
	TickRate           time.Duration `json:"tickRate"`           // e.g. "33ms"
	StateStreamRate    time.Duration `json:"stateStreamRate"`    // frequency at which deltas are broadcast
	EntityStreamRate   time.Duration `json:"entityStreamRate"`   // frequency for entity refreshes
	MaxConcurrentLoads int           `json:"maxConcurrentLoads"` // simultaneous chunk mesh/generation jobs
}

type ChunkConfig struct {
	Width         int `json:"width"`
	Depth         int `json:"depth"`
	Height        int `json:"height"`
	ChunksPerAxis int `json:"chunksPerAxis"`
}

type NetworkConfig struct {
	ListenUDP            string        `json:"listenUdp"`            // ":9000"
	MainServerEndpoints  []string      `json:"mainServerEndpoints"`  // list of UDP endpoints to stream to
	NeighborEndpoints    []NeighborRef `json:"neighborEndpoints"`    // optional explicit neighbor override
	HandshakeTimeout     time.Duration `json:"handshakeTimeout"`     // e.g. "3s"
	KeepAliveInterval    time.Duration `json:"keepAliveInterval"`    // periodic keep alive ping
	MaxDatagramSizeBytes int           `json:"maxDatagramSizeBytes"` // default to 64 KiB - UDP practical limit
	DiscoveryInterval    time.Duration `json:"discoveryInterval"`    // how often to query for neighbors
	TransferRetry        time.Duration `json:"transferRetry"`        // back-off for failed chunk transfers
}

type NeighborRef struct {
	ChunkDelta ChunkIndex `json:"chunkDelta"` // relative offset from this server's origin
	Endpoint   string     `json:"endpoint"`
}

type PathfindingConfig struct {
	MaxSearchNodes    int           `json:"maxSearchNodes"`
	HeuristicScale    float64       `json:"heuristicScale"`
	AsyncWorkers      int           `json:"asyncWorkers"`
	ThrottlePerSecond int           `json:"throttlePerSecond"`
	QueueTimeout      time.Duration `json:"queueTimeout"`
}

type TerrainConfig struct {
	Seed        int64   `json:"seed"`
	Frequency   float64 `json:"frequency"`
	Amplitude   float64 `json:"amplitude"`
	Octaves     int     `json:"octaves"`
	Persistence float64 `json:"persistence"`
	Lacunarity  float64 `json:"lacunarity"`
	Workers     int     `json:"workers"` // concurrent chunk-column generation workers
}

type EconomyConfig struct {
	ResourceSpawnDensity map[string]float64 `json:"resourceSpawnDensity"`
	MiningLevelGrowth    float64            `json:"miningLevelGrowth"` // multiplier per miner level
	BaseMiningRate       float64            `json:"baseMiningRate"`    // blocks per second
}

type EntityConfig struct {
	MaxEntitiesPerChunk int           `json:"maxEntitiesPerChunk"`
	EntityTickRate      time.Duration `json:"entityTickRate"`
	ProjectileTickRate  time.Duration `json:"projectileTickRate"`
	MovementWorkers     int           `json:"movementWorkers"`
}

type ChunkIndex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Load reads configuration from a JSON file if provided. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadOverlay reads configuration the way a deployed server does: defaults,
// overlaid by an optional file, overlaid by VOXELNAV_-prefixed environment
// variables (e.g. VOXELNAV_SERVER_TICKRATE). path may be empty to skip the
// file layer entirely. Grounded on the reinforcement-learning config
// reader's use of viper.New() + ReadInConfig() + Unmarshal, extended with
// AutomaticEnv since a single Viper instance here only ever serves one
// Config (the multi-config statefulness concern that reader's author raised
// does not apply).
func LoadOverlay(path string) (*Config, error) {
	cfg := Default()

	vp := viper.New()
	vp.SetEnvPrefix("voxelnav")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows, so register
	// every field of the defaults as a key before reading the overlays.
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	var defaults map[string]any
	if err := json.Unmarshal(raw, &defaults); err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	for k, v := range defaults {
		vp.SetDefault(k, v)
	}

	if path != "" {
		vp.SetConfigFile(filepath.Base(path))
		vp.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		vp.AddConfigPath(filepath.Dir(path))
		if err := vp.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ID:                 "chunk-server-0",
			Description:        "local development chunk server",
			GlobalChunkOrigin:  ChunkIndex{X: 0, Y: 0},
			TickRate:           33 * time.Millisecond,
			StateStreamRate:    200 * time.Millisecond,
			EntityStreamRate:   50 * time.Millisecond,
			MaxConcurrentLoads: 4,
		},
		Chunk: ChunkConfig{
			Width:         512,
			Depth:         512,
			Height:        2048,
			ChunksPerAxis: 32,
		},
		Network: NetworkConfig{
			ListenUDP:            ":19000",
			MainServerEndpoints:  []string{"127.0.0.1:20000"},
			NeighborEndpoints:    []NeighborRef{},
			HandshakeTimeout:     3 * time.Second,
			KeepAliveInterval:    5 * time.Second,
			MaxDatagramSizeBytes: 1 << 16,
			DiscoveryInterval:    10 * time.Second,
			TransferRetry:        2 * time.Second,
		},
		Pathfinding: PathfindingConfig{
			MaxSearchNodes:    50_000,
			HeuristicScale:    1.0,
			AsyncWorkers:      4,
			ThrottlePerSecond: 120,
			QueueTimeout:      250 * time.Millisecond,
		},
		Terrain: TerrainConfig{
			Seed:        1337,
			Frequency:   0.003,
			Amplitude:   512,
			Octaves:     4,
			Persistence: 0.45,
			Lacunarity:  2.0,
			Workers:     4,
		},
		Economy: EconomyConfig{
			ResourceSpawnDensity: map[string]float64{
				"steel":       0.9,
				"uranium":     0.25,
				"plastanium":  0.4,
				"vibranium":   0.1,
				"electronium": 0.15,
				"foodium":     0.6,
			},
			MiningLevelGrowth: 1.15,
			BaseMiningRate:    3.0,
		},
		Entities: EntityConfig{
			MaxEntitiesPerChunk: 4096,
			EntityTickRate:      33 * time.Millisecond,
			ProjectileTickRate:  16 * time.Millisecond,
			MovementWorkers:     1,
		},
		Blocks: []BlockConfig{
			{ID: "air", Kind: 0, FullyPassable: true},
			{ID: "stone", Kind: 1, WalkOn: true},
			{ID: "water", Kind: 2, Water: true, WalkThrough: true},
			{ID: "lava", Kind: 3, Lava: true, WalkThrough: true, AvoidBreak: true},
			{ID: "ladder", Kind: 4, Climbable: true, WalkThrough: true},
			{ID: "oak_fence", Kind: 5, Fence: true},
			{ID: "wool_carpet", Kind: 6, WalkOn: true, Carpet: true},
			{ID: "oak_door", Kind: 7, Openable: true},
			{ID: "sand", Kind: 8, WalkOn: true, FallingBlock: true},
			{ID: "bedrock", Kind: 9, WalkOn: true, AvoidBreak: true},
		},
	}
}

func (c *Config) Validate() error {
	if c.Server.ID == "" {
		return errors.New("server.id must be set")
	}
	if c.Chunk.Width <= 0 || c.Chunk.Depth <= 0 || c.Chunk.Height <= 0 {
		return errors.New("chunk dimensions must be positive")
	}
	if c.Chunk.ChunksPerAxis <= 0 {
		return errors.New("chunk.chunksPerAxis must be positive")
	}
	if c.Network.ListenUDP == "" {
		return errors.New("network.listenUdp must be set")
	}
	if c.Entities.MaxEntitiesPerChunk <= 0 {
		return errors.New("entities.maxEntitiesPerChunk must be positive")
	}
	if c.Entities.MovementWorkers < 0 {
		return errors.New("entities.movementWorkers cannot be negative")
	}
	if c.Terrain.Workers < 0 {
		return errors.New("terrain.workers cannot be negative")
	}
	for i, b := range c.Blocks {
		if b.ID == "" {
			return fmt.Errorf("blocks[%d].id must be set", i)
		}
	}
	return nil
}
