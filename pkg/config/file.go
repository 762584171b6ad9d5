package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/moonframe/pkg/display"
	"github.com/charlie0129/moonframe/pkg/types"
	"github.com/charlie0129/moonframe/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		Mode:                   ptr.To(string(display.LunarCalendar)),
		DefaultBootTime:        ptr.To("2025-01-01 00:00:00"),
		LowPowerThreshold:      ptr.To(3.1),
		CardRoot:               ptr.To("/media/sdcard"),
		DateHintFile:           ptr.To("date.txt"),
		RTCStatePath:           ptr.To("/var/lib/moonframe/rtc.json"),
		CommandBufferSize:      ptr.To(64),
		PollIntervalMs:         ptr.To(200),
		WatchdogTimeoutSeconds: ptr.To(8),
		RefreshOnAlarm:         ptr.To(true),
		CommandInput:           ptr.To(""),
		AllowNonRootAccess:     ptr.To(false),
		FixedVoltage:           ptr.To(0.0),
	}
)

// RawFileConfig is the on-disk form of Config. Unset fields take their
// default.
type RawFileConfig struct {
	Mode                   *string     `json:"mode,omitempty" yaml:"mode,omitempty"`
	DefaultBootTime        *string     `json:"defaultBootTime,omitempty" yaml:"defaultBootTime,omitempty"`
	LowPowerThreshold      *float64    `json:"lowPowerThreshold,omitempty" yaml:"lowPowerThreshold,omitempty"`
	CardRoot               *string     `json:"cardRoot,omitempty" yaml:"cardRoot,omitempty"`
	DateHintFile           *string     `json:"dateHintFile,omitempty" yaml:"dateHintFile,omitempty"`
	RTCStatePath           *string     `json:"rtcStatePath,omitempty" yaml:"rtcStatePath,omitempty"`
	CommandBufferSize      *int        `json:"commandBufferSize,omitempty" yaml:"commandBufferSize,omitempty"`
	PollIntervalMs         *int        `json:"pollIntervalMs,omitempty" yaml:"pollIntervalMs,omitempty"`
	WatchdogTimeoutSeconds *int        `json:"watchdogTimeoutSeconds,omitempty" yaml:"watchdogTimeoutSeconds,omitempty"`
	RefreshOnAlarm         *bool       `json:"refreshOnAlarm,omitempty" yaml:"refreshOnAlarm,omitempty"`
	CommandInput           *string     `json:"commandInput,omitempty" yaml:"commandInput,omitempty"`
	AllowNonRootAccess     *bool       `json:"allowNonRootAccess,omitempty" yaml:"allowNonRootAccess,omitempty"`
	GPIO                   *GPIOConfig `json:"gpio,omitempty" yaml:"gpio,omitempty"`
	FixedVoltage           *float64    `json:"fixedVoltage,omitempty" yaml:"fixedVoltage,omitempty"`
}

// NewRawFileConfigFromConfig converts c back to its file form with every
// field set.
func NewRawFileConfigFromConfig(c *Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		Mode:                   ptr.To(string(c.Mode)),
		DefaultBootTime:        ptr.To(c.DefaultBootTime.String()),
		LowPowerThreshold:      ptr.To(c.LowPowerThreshold),
		CardRoot:               ptr.To(c.CardRoot),
		DateHintFile:           ptr.To(c.DateHintFile),
		RTCStatePath:           ptr.To(c.RTCStatePath),
		CommandBufferSize:      ptr.To(c.CommandBufferSize),
		PollIntervalMs:         ptr.To(int(c.PollInterval / time.Millisecond)),
		WatchdogTimeoutSeconds: ptr.To(int(c.WatchdogTimeout / time.Second)),
		RefreshOnAlarm:         ptr.To(c.RefreshOnAlarm),
		CommandInput:           ptr.To(c.CommandInput),
		AllowNonRootAccess:     ptr.To(c.AllowNonRootAccess),
		FixedVoltage:           ptr.To(c.FixedVoltage),
	}
	if c.GPIO != nil {
		g := *c.GPIO
		rawConfig.GPIO = &g
	}

	return rawConfig, nil
}

// Resolve merges r over the defaults and validates the result.
func (r *RawFileConfig) Resolve() (*Config, error) {
	if r == nil {
		r = &RawFileConfig{}
	}
	d := defaultFileConfig

	mode, err := display.ParseMode(ptr.Deref(r.Mode, *d.Mode))
	if err != nil {
		return nil, err
	}
	bootTime, err := types.ParseTimestamp(ptr.Deref(r.DefaultBootTime, *d.DefaultBootTime))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invalid defaultBootTime")
	}

	c := &Config{
		Mode:               mode,
		DefaultBootTime:    bootTime,
		LowPowerThreshold:  ptr.Deref(r.LowPowerThreshold, *d.LowPowerThreshold),
		CardRoot:           ptr.Deref(r.CardRoot, *d.CardRoot),
		DateHintFile:       ptr.Deref(r.DateHintFile, *d.DateHintFile),
		RTCStatePath:       ptr.Deref(r.RTCStatePath, *d.RTCStatePath),
		CommandBufferSize:  ptr.Deref(r.CommandBufferSize, *d.CommandBufferSize),
		PollInterval:       time.Duration(ptr.Deref(r.PollIntervalMs, *d.PollIntervalMs)) * time.Millisecond,
		WatchdogTimeout:    time.Duration(ptr.Deref(r.WatchdogTimeoutSeconds, *d.WatchdogTimeoutSeconds)) * time.Second,
		RefreshOnAlarm:     ptr.Deref(r.RefreshOnAlarm, *d.RefreshOnAlarm),
		CommandInput:       ptr.Deref(r.CommandInput, *d.CommandInput),
		AllowNonRootAccess: ptr.Deref(r.AllowNonRootAccess, *d.AllowNonRootAccess),
		FixedVoltage:       ptr.Deref(r.FixedVoltage, *d.FixedVoltage),
	}
	if r.GPIO != nil {
		g := *r.GPIO
		c.GPIO = &g
	}

	if err := c.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "invalid config")
	}
	return c, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c, err := (&RawFileConfig{}).Resolve()
	if err != nil {
		panic(err)
	}
	return c
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// File is a config file on disk, JSON unless its extension says YAML.
type File struct {
	c        *RawFileConfig
	filepath string
}

// NewFile loads configPath. A missing or empty file yields the defaults.
func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	return &File{
		c:        c,
		filepath: configPath,
	}
}

// Raw returns the file content as loaded.
func (f *File) Raw() *RawFileConfig {
	return f.c
}

// Config resolves the file into a validated Config.
func (f *File) Config() (*Config, error) {
	c, err := f.c.Resolve()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "config file %s", f.filepath)
	}
	return c, nil
}

func (f *File) Load() error {
	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	configString := os.ExpandEnv(string(b))

	if strings.TrimSpace(configString) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if isYAML(f.filepath) {
		err = yaml.Unmarshal([]byte(configString), &conf)
	} else {
		err = json.Unmarshal([]byte(configString), &conf)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	if err := os.MkdirAll(filepath.Dir(f.filepath), 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create directory for %s", f.filepath)
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	if isYAML(f.filepath) {
		enc := yaml.NewEncoder(fp)
		enc.SetIndent(2)
		err = enc.Encode(f.c)
		if err == nil {
			err = enc.Close()
		}
	} else {
		enc := json.NewEncoder(fp)
		enc.SetIndent("", "  ")
		err = enc.Encode(f.c)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}
