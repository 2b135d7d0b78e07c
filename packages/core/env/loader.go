package env

// Load builds the extra environment for a test command: variables from the
// optional .env file, then configured variables with ${NAME} references
// expanded against the .env values and the process environment.
func Load(envFile string, configured map[string]string, warn WarnFunc) (map[string]string, error) {
	resolver := NewResolver()
	resolver.SetWarnFunc(warn)

	var fromFile map[string]string
	if envFile != "" {
		vars, err := LoadDotEnv(envFile)
		if err != nil {
			return nil, err
		}
		fromFile = vars
		resolver.SetVariables(vars)
	}

	return MergeVariables(fromFile, resolver.ResolveAll(configured)), nil
}

// MergeVariables merges maps left to right; later sources win.
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
