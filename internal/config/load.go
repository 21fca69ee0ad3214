package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/livp123/firesense/internal/utils/fileutil"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadGlobalConfig loads the configuration from a YAML file, applies
// environment overrides and validates the result.
// LoadGlobalConfig 从 YAML 文件加载配置，应用环境变量覆盖并验证。
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	safePath := filepath.Clean(path) // Sanitize path to prevent directory traversal
	data, err := os.ReadFile(safePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s", fserrors.ErrConfiguration, fserrors.ErrConfigNotFound, safePath)
		}
		return nil, fmt.Errorf("%w: %v", fserrors.ErrConfiguration, err)
	}

	// Initialize with defaults / 使用默认值初始化
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", fserrors.ErrConfiguration, fserrors.ErrConfigInvalid, err)
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	// Validate configuration / 验证配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like LoadGlobalConfig but falls back to defaults
// (plus environment overrides) when the file does not exist.
// LoadOrDefault 在文件不存在时回退到默认配置。
func LoadOrDefault(path string) (*GlobalConfig, error) {
	cfg, err := LoadGlobalConfig(path)
	if err == nil || !errors.Is(err, fserrors.ErrConfigNotFound) {
		return cfg, err
	}

	logger.Get(nil).Debugf("[CONFIG] %s not found, using defaults", path)
	cfg = DefaultConfig()
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// InitConfig writes DefaultConfigTemplate to path unless a file exists and
// force is false.
// InitConfig 将默认模板写入 path（除非文件已存在且未强制覆盖）。
func InitConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(path, []byte(DefaultConfigTemplate), 0600)
}

// SaveGlobalConfig writes cfg to path, keeping the comments of an existing file.
// SaveGlobalConfig 将配置写入 path，并保留现有文件的注释。
func SaveGlobalConfig(path string, cfg *GlobalConfig) error {
	// 1. Marshal new config to Node
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var newNode yaml.Node
	if err := yaml.Unmarshal(data, &newNode); err != nil {
		return err
	}

	// 2. Read existing file (or the template) to Node
	safePath := filepath.Clean(path)
	base, readErr := os.ReadFile(safePath)
	if readErr != nil {
		base = []byte(DefaultConfigTemplate)
	}

	var fileNode yaml.Node
	if err := yaml.Unmarshal(base, &fileNode); err != nil || fileNode.Kind == 0 {
		// Fallback if file is malformed: just write the new config
		return fileutil.AtomicWriteFile(safePath, data, 0600)
	}

	// 3. Merge new config INTO file config (preserving comments)
	MergeYamlNodes(&fileNode, &newNode)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&fileNode); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(safePath, buf.Bytes(), 0600)
}

// MergeYamlNodes updates target (existing file) with source (new config).
// It preserves comments from target where possible and keeps keys that
// only exist in source.
// MergeYamlNodes 用 source 更新 target，尽量保留 target 的注释。
func MergeYamlNodes(target, source *yaml.Node) {
	if target.Kind == yaml.DocumentNode {
		if source.Kind == yaml.DocumentNode && len(target.Content) > 0 && len(source.Content) > 0 {
			MergeYamlNodes(target.Content[0], source.Content[0])
		}
		return
	}

	if target.Kind != yaml.MappingNode || source.Kind != yaml.MappingNode {
		// Replace target with source but carry over the old comments.
		if source.HeadComment == "" {
			source.HeadComment = target.HeadComment
		}
		if source.LineComment == "" {
			source.LineComment = target.LineComment
		}
		if source.FootComment == "" {
			source.FootComment = target.FootComment
		}
		*target = *source
		return
	}

	sourceIdx := make(map[string]int, len(source.Content)/2)
	for i := 0; i < len(source.Content); i += 2 {
		sourceIdx[source.Content[i].Value] = i
	}

	seen := make(map[string]bool, len(sourceIdx))
	content := make([]*yaml.Node, 0, len(target.Content))
	for i := 0; i < len(target.Content); i += 2 {
		key, val := target.Content[i], target.Content[i+1]
		if j, ok := sourceIdx[key.Value]; ok {
			MergeYamlNodes(val, source.Content[j+1])
			seen[key.Value] = true
		}
		content = append(content, key, val)
	}
	for i := 0; i < len(source.Content); i += 2 {
		if !seen[source.Content[i].Value] {
			content = append(content, source.Content[i], source.Content[i+1])
		}
	}
	target.Content = content
}
