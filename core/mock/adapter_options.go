package mock

import (
	"context"

	"github.com/snowduck/snowduck/value"
)

type adapterConfig struct {
	querySideEffects map[string]func(context.Context) error
	queryRows        map[string][]value.Row
	affected         int64
	connectErr       error
	closeErr         error

	resultStreamOptions []ResultStreamOption
}

type AdapterOption func(*adapterConfig)

func AdapterWithQuerySideEffect(query string, sideEffect func(context.Context) error) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.querySideEffects[query]
		if ok {
			panic("side effect already registered for query: " + query)
		}

		c.querySideEffects[query] = sideEffect
	}
}

// AdapterWithQueryRows serves rows for query instead of the default data.
func AdapterWithQueryRows(query string, rows []value.Row) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.queryRows[query]
		if ok {
			panic("rows already registered for query: " + query)
		}

		c.queryRows[query] = rows
	}
}

func AdapterWithAffectedRows(n int64) AdapterOption {
	return func(c *adapterConfig) {
		c.affected = n
	}
}

func AdapterWithConnectError(err error) AdapterOption {
	return func(c *adapterConfig) {
		c.connectErr = err
	}
}

func AdapterWithCloseError(err error) AdapterOption {
	return func(c *adapterConfig) {
		c.closeErr = err
	}
}

func AdapterWithResultStreamOpts(opts ...ResultStreamOption) AdapterOption {
	return func(c *adapterConfig) {
		c.resultStreamOptions = append(c.resultStreamOptions, opts...)
	}
}
