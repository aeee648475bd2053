package configuration

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/maps"
	"github.com/spf13/pflag"
)

// lowerPosflag implements a pflag command line provider with lower-cased keys.
type lowerPosflag struct {
	delim   string
	flagset *pflag.FlagSet
	ko      *koanf.Koanf
}

// lowerPosflagProvider returns a command line flags provider that returns a nested map[string]interface{} where the
// nesting hierarchy of keys is defined by delim.
//
// It takes the Koanf instance to see if the defined flags have been set from other providers, for instance a config
// file. If they have not, the default values of the flags are merged. If they have, only the values that were
// explicitly set in the command line are merged.
func lowerPosflagProvider(f *pflag.FlagSet, delim string, ko *koanf.Koanf) *lowerPosflag {
	return &lowerPosflag{
		flagset: f,
		delim:   delim,
		ko:      ko,
	}
}

// Read reads the flag variables and returns a nested conf map.
func (p *lowerPosflag) Read() (map[string]interface{}, error) {
	mp := make(map[string]interface{})
	p.flagset.VisitAll(func(f *pflag.Flag) {
		// if no value was explicitly set in the command line, check if the default value should be used
		if !f.Changed && p.ko != nil && p.ko.Exists(strings.ToLower(f.Name)) {
			return
		}

		var v interface{}
		switch f.Value.Type() {
		case "int":
			i, _ := p.flagset.GetInt(f.Name)
			v = int64(i)
		case "int64":
			i, _ := p.flagset.GetInt64(f.Name)
			v = i
		case "float64":
			v, _ = p.flagset.GetFloat64(f.Name)
		case "bool":
			v, _ = p.flagset.GetBool(f.Name)
		case "duration":
			v, _ = p.flagset.GetDuration(f.Name)
		case "stringSlice":
			v, _ = p.flagset.GetStringSlice(f.Name)
		default:
			v = f.Value.String()
		}

		mp[strings.ToLower(f.Name)] = v
	})

	return maps.Unflatten(mp, p.delim), nil
}

// ReadBytes is not supported by this provider.
func (p *lowerPosflag) ReadBytes() ([]byte, error) {
	return nil, errors.New("pflag provider does not support this method")
}

// Watch is not supported by this provider.
func (p *lowerPosflag) Watch(cb func(event interface{}, err error)) error {
	return errors.New("pflag provider does not support this method")
}

// confMap implements a single key/value provider.
type confMap struct {
	delim string
	key   string
	value interface{}
}

// confMapProvider returns a provider that merges a single key/value pair into the config.
func confMapProvider(key string, value interface{}, delim string) *confMap {
	return &confMap{
		delim: delim,
		key:   key,
		value: value,
	}
}

// Read returns the nested conf map of the single key/value pair.
func (p *confMap) Read() (map[string]interface{}, error) {
	return maps.Unflatten(map[string]interface{}{p.key: p.value}, p.delim), nil
}

// ReadBytes is not supported by this provider.
func (p *confMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("confmap provider does not support this method")
}

// Watch is not supported by this provider.
func (p *confMap) Watch(cb func(event interface{}, err error)) error {
	return errors.New("confmap provider does not support this method")
}
