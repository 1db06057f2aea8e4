package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var globalFlagAliases = map[string]string{
	"datadir": "data-dir",
	"dir":     "data-dir",
}

var baseURLFlagAliases = map[string]string{
	"baseurl": "base-url",
	"base":    "base-url",
}

func addBaseURLFlagAliases(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		setFlagAliases(cmd.Flags(), baseURLFlagAliases)
	}
}

func setFlagAliases(flags *pflag.FlagSet, aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}

	normalize := flags.GetNormalizeFunc()
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		return normalize(f, name)
	})
}
