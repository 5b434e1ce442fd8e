package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Read-only map containing all environment variables, plus a cache of parsed values keyed
// by "<kind>:<key>".
var strEnvMap = make(map[string]string)
var parsedEnvMap = make(map[string]interface{})

// Mutex protecting one-time map store operation
var envMapMutex sync.RWMutex

func init() {
	for _, entry := range os.Environ() {
		pair := strings.SplitN(entry, "=", 2)
		if len(pair) == 2 {
			strEnvMap[pair[0]] = pair[1]
		}
	}
}

// LoadDotEnv merges key/value pairs from the given env files. Variables already present in
// the process environment win over the files. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		values, err := godotenv.Read(f)
		if err != nil {
			return fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		envMapMutex.Lock()
		for k, v := range values {
			if _, exists := strEnvMap[k]; !exists {
				strEnvMap[k] = v
			}
		}
		envMapMutex.Unlock()
	}
	return nil
}

// GetString returns a setting in string.
func GetString(key string, defaultValue ...string) string {
	envMapMutex.RLock()
	defer envMapMutex.RUnlock()

	val, exists := strEnvMap[key]
	if !exists {
		if len(defaultValue) == 0 {
			panic(fmt.Errorf("setting %s does not exist", key))
		}
		val = defaultValue[0]
	}

	return val
}

// getParsed looks up key, parses it with parse and memoizes the result. A missing key falls
// back to def, or panics when no default is given.
func getParsed[T any](kind, key string, parse func(string) (T, error), def []T) T {
	cacheKey := kind + ":" + key
	envMapMutex.RLock()
	if v, exists := parsedEnvMap[cacheKey]; exists {
		envMapMutex.RUnlock()
		return v.(T)
	}
	strVal, strExists := strEnvMap[key]
	envMapMutex.RUnlock()

	if !strExists {
		if len(def) == 0 {
			panic(fmt.Errorf("setting %s does not exist", key))
		}
		return def[0]
	}

	result, err := parse(strVal)
	if err != nil {
		panic(fmt.Errorf("failed to parse %s for setting %s, err=%w", kind, key, err))
	}
	envMapMutex.Lock()
	parsedEnvMap[cacheKey] = result
	envMapMutex.Unlock()
	return result
}

// GetBool returns a setting in bool.
func GetBool(key string, def ...bool) bool {
	return getParsed("bool", key, strconv.ParseBool, def)
}

// GetInt returns a setting in integer.
func GetInt(key string, def ...int) int {
	return getParsed("int", key, func(s string) (int, error) {
		v, err := strconv.ParseInt(s, 0, 32)
		return int(v), err
	}, def)
}

// GetInt64 returns a setting in int64.
func GetInt64(key string, def ...int64) int64 {
	return getParsed("int64", key, func(s string) (int64, error) {
		return strconv.ParseInt(s, 0, 64)
	}, def)
}

// GetDuration returns a setting in time.Duration, written like "30s" or "1m".
func GetDuration(key string, def ...time.Duration) time.Duration {
	return getParsed("duration", key, time.ParseDuration, def)
}

// GetInt64List returns a comma separated setting as int64 values.
func GetInt64List(key string, def ...[]int64) []int64 {
	return getParsed("int64list", key, func(s string) ([]int64, error) {
		var res []int64
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			res = append(res, v)
		}
		return res, nil
	}, def)
}

// SetString sets string to strEnvMap and drops any parsed value of the key.
func SetString(key string, value string) {
	envMapMutex.Lock()
	strEnvMap[key] = value
	for cacheKey := range parsedEnvMap {
		if strings.HasSuffix(cacheKey, ":"+key) {
			delete(parsedEnvMap, cacheKey)
		}
	}
	envMapMutex.Unlock()
}
