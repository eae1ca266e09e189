package model

import "gopkg.in/yaml.v3"

func decodeYAML(data []byte, a *Artifact) error {
	return yaml.Unmarshal(data, a)
}

// init registers built-in decoders. JSON artifacts are valid YAML, so one
// decoder serves both.
func init() {
	RegisterDecoder(".yaml", decodeYAML)
	RegisterDecoder(".yml", decodeYAML)
	RegisterDecoder(".json", decodeYAML)
}
