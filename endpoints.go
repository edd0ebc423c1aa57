package main

import (
	"context"
	"fmt"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/handler"
	"github.com/snowduck/snowduck/plugin"
)

func parseArgs[T any](raw map[string]any) (*T, error) {
	parsed, err := plugin.NewArgs[T](raw).Parse()
	if err != nil {
		return nil, core.NewError(core.KindConfig, err)
	}
	return parsed, nil
}

func mountEndpoints(ctx context.Context, p *plugin.Plugin, h *handler.Handler) error {
	endpoints := map[string]any{
		"SnowduckOpen": func(opts map[string]any) (core.ConnectionID, error) {
			params, err := parseArgs[handler.OpenParams](opts)
			if err != nil {
				return "", err
			}
			return h.OpenConnection(ctx, params)
		},

		"SnowduckClose": func(id core.ConnectionID) error {
			return h.CloseConnection(id)
		},

		"SnowduckConnections": func() (any, error) {
			return handler.WrapConnections(h.Connections()), nil
		},

		"SnowduckStats": func(id core.ConnectionID) (any, error) {
			stats, err := h.Stats(id)
			return handler.WrapStats(stats), err
		},

		"SnowduckExecute": func(id core.ConnectionID, query string) (int64, error) {
			return h.Execute(ctx, id, query)
		},

		"SnowduckExecuteBatch": func(id core.ConnectionID, query string) error {
			return h.ExecuteBatch(ctx, id, query)
		},

		"SnowduckQueryRows": func(id core.ConnectionID, query string) (any, error) {
			rows, err := h.QueryRows(ctx, id, query)
			if err != nil {
				return nil, err
			}
			return handler.WrapValues(rows), nil
		},

		"SnowduckQueryObjects": func(id core.ConnectionID, query string) (any, error) {
			objects, err := h.QueryObjects(ctx, id, query)
			if err != nil {
				return nil, err
			}
			return handler.WrapObjects(objects), nil
		},

		"SnowduckFormat": func(id core.ConnectionID, query string, opts map[string]any) (string, error) {
			params, err := parseArgs[handler.FormatParams](opts)
			if err != nil {
				return "", err
			}
			return h.Format(ctx, id, query, params)
		},

		"SnowduckTables": func(id core.ConnectionID) (any, error) {
			tables, err := h.Tables(ctx, id)
			if err != nil {
				return nil, err
			}
			return handler.WrapObjects(tables), nil
		},

		"SnowduckViews": func(id core.ConnectionID) (any, error) {
			views, err := h.Views(ctx, id)
			if err != nil {
				return nil, err
			}
			return handler.WrapObjects(views), nil
		},

		"SnowduckMemory": func(id core.ConnectionID) (any, error) {
			memory, err := h.Memory(ctx, id)
			if err != nil {
				return nil, err
			}
			return handler.WrapObjects(memory), nil
		},

		"SnowduckDrop": func(id core.ConnectionID, schema, name, kind string) error {
			return h.Drop(ctx, id, schema, name, kind)
		},

		"SnowduckClear": func(id core.ConnectionID) error {
			return h.Clear(ctx, id)
		},

		"SnowduckDump": func(id core.ConnectionID, filename, schema string, tables []string) error {
			return h.Dump(ctx, id, filename, schema, tables)
		},

		"SnowduckStructure": func(id core.ConnectionID) ([]*core.Structure, error) {
			return h.Structure(ctx, id)
		},

		"SnowduckDefine": func(id core.ConnectionID, tables []map[string]any) error {
			params := make([]*handler.TableParams, 0, len(tables))
			for _, raw := range tables {
				param, err := parseArgs[handler.TableParams](raw)
				if err != nil {
					return err
				}
				params = append(params, param)
			}
			return h.DefineTables(id, params)
		},

		"SnowduckInitialize": func(id core.ConnectionID, tables []string) error {
			return h.Initialize(ctx, id, tables)
		},

		"SnowduckInitialized": func(id core.ConnectionID) ([]string, error) {
			return h.Initialized(id)
		},

		"SnowduckDumpInitialized": func(id core.ConnectionID, filename string) error {
			return h.DumpInitialized(ctx, id, filename)
		},

		"SnowduckGraph": func(id core.ConnectionID, format string) (string, error) {
			return h.Graph(id, format)
		},
	}

	for name, fn := range endpoints {
		if err := p.RegisterEndpoint(name, fn); err != nil {
			return fmt.Errorf("p.RegisterEndpoint: %w", err)
		}
	}
	return nil
}
