package config

// Optional returns the values of the settings which exist, in the given order.
func Optional(names ...string) []string {
	var res []string
	for _, n := range names {
		envMapMutex.RLock()
		s, ok := strEnvMap[n]
		envMapMutex.RUnlock()
		if ok && s != "" {
			res = append(res, s)
		}
	}
	return res
}
