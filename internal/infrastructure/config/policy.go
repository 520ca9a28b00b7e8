package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CounterPolicy es la configuración en fichero del conteo automático. Vive en
// dataDir/config/counters/config.yaml y en el primer arranque se escribe con
// los valores por defecto, para que quede a la vista qué se puede tocar.
type CounterPolicy struct {
	CommandPrefix     string       `yaml:"command_prefix"`
	NotifyOnIncrement bool         `yaml:"notify_on_increment"`
	MilestonesEnabled bool         `yaml:"milestones_enabled"`
	Speech            SpeechPolicy `yaml:"speech"`
}

type SpeechPolicy struct {
	Enabled bool   `yaml:"enabled"`
	Voice   string `yaml:"voice"`
}

const policyName = "counters"

func DefaultCounterPolicy() CounterPolicy {
	return CounterPolicy{
		CommandPrefix:     "/",
		NotifyOnIncrement: true,
		MilestonesEnabled: true,
		Speech: SpeechPolicy{
			Enabled: false,
			Voice:   "es",
		},
	}
}

// PolicyPath devuelve la ruta del fichero de política.
func PolicyPath(dataDir string) string {
	return filepath.Join(dataDir, "config", policyName, "config.yaml")
}

// ReadCounterPolicy deserializa el YAML sobre los valores por defecto: las
// claves ausentes conservan su valor. Si el fichero no existe todavía, se
// crea con los valores por defecto.
func ReadCounterPolicy(dataDir string) (CounterPolicy, error) {
	policy := DefaultCounterPolicy()

	data, err := os.ReadFile(PolicyPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			if err := SaveCounterPolicy(dataDir, policy); err != nil {
				return policy, err
			}
			return policy, nil
		}
		return policy, fmt.Errorf("config: leyendo política: %w", err)
	}
	if len(data) == 0 {
		return policy, nil
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("config: política inválida: %w", err)
	}
	if policy.CommandPrefix == "" {
		policy.CommandPrefix = "/"
	}
	return policy, nil
}

// SaveCounterPolicy escribe la política creando los directorios que falten.
func SaveCounterPolicy(dataDir string, policy CounterPolicy) error {
	path := PolicyPath(dataDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creando directorio de política: %w", err)
	}

	data, err := yaml.Marshal(policy)
	if err != nil {
		return fmt.Errorf("config: serializando política: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: escribiendo política: %w", err)
	}
	return nil
}
