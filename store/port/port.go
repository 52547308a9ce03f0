package port

import (
	"context"
	"encoding/json"
	"strings"

	"linkport/core"
	"linkport/store/state"
)

type portStore struct{}

// New new port store
func New() core.IPortStore {
	return &portStore{}
}

func routeKey(chain uint64) []byte {
	return state.Key("port", "route", chain)
}

func tokenKey(asset string, chain uint64) []byte {
	return state.Key("port", "token", strings.ToLower(asset), chain)
}

func remoteKey(remote string, chain uint64) []byte {
	return state.Key("port", "remote", strings.ToLower(remote), chain)
}

func assetKey(id string) []byte {
	return state.Key("port", "asset", strings.ToLower(id))
}

func (s *portStore) SaveRoute(ctx context.Context, tx *state.Tx, route *core.Route) error {
	return tx.PutJSON(routeKey(route.Chain), route)
}

func (s *portStore) FindRoute(ctx context.Context, tx *state.Tx, chain uint64) (string, error) {
	var route core.Route
	if _, err := tx.GetJSON(routeKey(chain), &route); err != nil {
		return "", err
	}

	return route.Port, nil
}

func (s *portStore) ListRoutes(ctx context.Context, tx *state.Tx) ([]*core.Route, error) {
	var routes []*core.Route
	err := tx.Iterate(state.Prefix("port", "route"), func(_, value []byte) error {
		var route core.Route
		if err := json.Unmarshal(value, &route); err != nil {
			return err
		}
		routes = append(routes, &route)
		return nil
	})

	return routes, err
}

func (s *portStore) SaveToken(ctx context.Context, tx *state.Tx, mapping *core.TokenMapping) error {
	var prev core.TokenMapping
	if ok, err := tx.GetJSON(tokenKey(mapping.Asset, mapping.Chain), &prev); err != nil {
		return err
	} else if ok && !strings.EqualFold(prev.Remote, mapping.Remote) {
		if err := tx.Delete(remoteKey(prev.Remote, prev.Chain)); err != nil {
			return err
		}
	}

	if err := tx.PutJSON(tokenKey(mapping.Asset, mapping.Chain), mapping); err != nil {
		return err
	}

	return tx.PutJSON(remoteKey(mapping.Remote, mapping.Chain), mapping)
}

func (s *portStore) FindToken(ctx context.Context, tx *state.Tx, asset string, chain uint64) (string, error) {
	var mapping core.TokenMapping
	if _, err := tx.GetJSON(tokenKey(asset, chain), &mapping); err != nil {
		return "", err
	}

	return mapping.Remote, nil
}

func (s *portStore) FindLocalToken(ctx context.Context, tx *state.Tx, remote string, chain uint64) (string, error) {
	var mapping core.TokenMapping
	if _, err := tx.GetJSON(remoteKey(remote, chain), &mapping); err != nil {
		return "", err
	}

	return mapping.Asset, nil
}

func (s *portStore) ListTokens(ctx context.Context, tx *state.Tx) ([]*core.TokenMapping, error) {
	var mappings []*core.TokenMapping
	err := tx.Iterate(state.Prefix("port", "token"), func(_, value []byte) error {
		var mapping core.TokenMapping
		if err := json.Unmarshal(value, &mapping); err != nil {
			return err
		}
		mappings = append(mappings, &mapping)
		return nil
	})

	return mappings, err
}

func (s *portStore) SaveAsset(ctx context.Context, tx *state.Tx, asset *core.Asset) error {
	return tx.PutJSON(assetKey(asset.ID), asset)
}

func (s *portStore) FindAsset(ctx context.Context, tx *state.Tx, id string) (*core.Asset, error) {
	asset := core.Asset{ID: id}
	if _, err := tx.GetJSON(assetKey(id), &asset); err != nil {
		return nil, err
	}

	return &asset, nil
}

func (s *portStore) ListAssets(ctx context.Context, tx *state.Tx) ([]*core.Asset, error) {
	var assets []*core.Asset
	err := tx.Iterate(state.Prefix("port", "asset"), func(_, value []byte) error {
		var asset core.Asset
		if err := json.Unmarshal(value, &asset); err != nil {
			return err
		}
		assets = append(assets, &asset)
		return nil
	})

	return assets, err
}

func (s *portStore) NextNonce(ctx context.Context, tx *state.Tx) (uint64, error) {
	return tx.Sequence(state.Key("port", "nonce"))
}
