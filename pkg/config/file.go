package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/devnode/devnoti/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		BusType:            ptr.To("system"),
		SysfsRoot:          ptr.To("/"),
		EnableBattery:      ptr.To(true),
		EnableExtcon:       ptr.To(true),
		ResyncSchedule:     ptr.To("@every 5m"),
		EventHistory:       ptr.To(64),
		AllowNonRootAccess: ptr.To(false),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
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

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	BusType            *string `json:"busType,omitempty" yaml:"busType,omitempty"`
	SysfsRoot          *string `json:"sysfsRoot,omitempty" yaml:"sysfsRoot,omitempty"`
	EnableBattery      *bool   `json:"enableBattery,omitempty" yaml:"enableBattery,omitempty"`
	EnableExtcon       *bool   `json:"enableExtcon,omitempty" yaml:"enableExtcon,omitempty"`
	ResyncSchedule     *string `json:"resyncSchedule,omitempty" yaml:"resyncSchedule,omitempty"`
	EventHistory       *int    `json:"eventHistory,omitempty" yaml:"eventHistory,omitempty"`
	AllowNonRootAccess *bool   `json:"allowNonRootAccess,omitempty" yaml:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		BusType:            ptr.To(c.BusType()),
		SysfsRoot:          ptr.To(c.SysfsRoot()),
		EnableBattery:      ptr.To(c.EnableBattery()),
		EnableExtcon:       ptr.To(c.EnableExtcon()),
		ResyncSchedule:     ptr.To(c.ResyncSchedule()),
		EventHistory:       ptr.To(c.EventHistory()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
	}

	return rawConfig, nil
}

func (f *File) isYAML() bool {
	switch strings.ToLower(filepath.Ext(f.filepath)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (f *File) BusType() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.BusType, *defaultFileConfig.BusType)
}

func (f *File) SysfsRoot() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.SysfsRoot, *defaultFileConfig.SysfsRoot)
}

func (f *File) EnableBattery() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.EnableBattery, *defaultFileConfig.EnableBattery)
}

func (f *File) EnableExtcon() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.EnableExtcon, *defaultFileConfig.EnableExtcon)
}

func (f *File) ResyncSchedule() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.ResyncSchedule, *defaultFileConfig.ResyncSchedule)
}

func (f *File) EventHistory() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	n := ptr.Deref(f.c.EventHistory, *defaultFileConfig.EventHistory)
	if n <= 0 {
		return *defaultFileConfig.EventHistory
	}
	return n
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.AllowNonRootAccess, *defaultFileConfig.AllowNonRootAccess)
}

func (f *File) SetBusType(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	if s != "system" && s != "session" {
		panic("bus type must be system or session")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.BusType = &s
}

func (f *File) SetResyncSchedule(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ResyncSchedule = &s
}

func (f *File) SetEventHistory(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i <= 0 {
		panic("event history must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.EventHistory = &i
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

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

	// Since we want to tell if the file is empty, using a streaming decoder
	// will not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if f.isYAML() {
		err = yaml.Unmarshal(b, &conf)
	} else {
		err = json.Unmarshal(b, &conf)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
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

	if f.isYAML() {
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

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"busType":            f.BusType(),
		"sysfsRoot":          f.SysfsRoot(),
		"enableBattery":      f.EnableBattery(),
		"enableExtcon":       f.EnableExtcon(),
		"resyncSchedule":     f.ResyncSchedule(),
		"eventHistory":       f.EventHistory(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
