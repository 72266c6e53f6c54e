package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

// mustBind ties a flag to a config key. A missing flag is a programming error.
func mustBind(key string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("no flag for config key %s", key))
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag for %s: %v", key, err))
	}
}
