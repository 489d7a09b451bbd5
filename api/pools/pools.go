// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/api/utils"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/runtime"
)

type Pools struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Pools {
	return &Pools{rt}
}

// viewError maps contract errors to http errors.
func viewError(err error) error {
	if errors.Is(err, reverts.ErrPoolNotFound) {
		return utils.NotFound(err)
	}
	return err
}

func parsePoolID(req *http.Request) (uint64, error) {
	id, err := utils.ParseUint(mux.Vars(req)["id"], 64, 0)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func parseAddress(req *http.Request) (rcc.Address, error) {
	addr, err := rcc.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return rcc.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return addr, nil
}

func (p *Pools) handleGetPools(w http.ResponseWriter, _ *http.Request) error {
	var result []*Pool
	err := p.rt.View(func(call *runtime.Call) error {
		n, err := call.Contract.PoolLength()
		if err != nil {
			return err
		}
		result = make([]*Pool, 0, n)
		for id := range n {
			info, err := call.Contract.PoolInfo(id)
			if err != nil {
				return err
			}
			result = append(result, ConvertPool(id, info))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, result)
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	var result *Pool
	err = p.rt.View(func(call *runtime.Call) error {
		info, err := call.Contract.PoolInfo(id)
		if err != nil {
			return err
		}
		result = ConvertPool(id, info)
		return nil
	})
	if err != nil {
		return viewError(err)
	}
	return utils.WriteJSON(w, result)
}

func (p *Pools) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	var result *User
	err = p.rt.View(func(call *runtime.Call) error {
		pos, err := call.Contract.UserInfo(id, addr)
		if err != nil {
			return err
		}
		result = ConvertUser(id, addr, pos, call.Env.BlockContext().Number)
		return nil
	})
	if err != nil {
		return viewError(err)
	}
	return utils.WriteJSON(w, result)
}

func (p *Pools) handleGetPending(w http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	result := &Pending{PoolID: id, Address: addr}
	err = p.rt.View(func(call *runtime.Call) error {
		amount, err := call.Contract.PendingReward(id, addr)
		if err != nil {
			return err
		}
		result.Height = call.Env.BlockContext().Number
		result.Amount = hex(amount)
		return nil
	})
	if err != nil {
		return viewError(err)
	}
	return utils.WriteJSON(w, result)
}

func (p *Pools) handleGetSchedule(w http.ResponseWriter, _ *http.Request) error {
	var result *Schedule
	err := p.rt.View(func(call *runtime.Call) (err error) {
		c := call.Contract
		sched, err := c.Schedule()
		if err != nil {
			return err
		}
		result = ConvertSchedule(sched)
		result.Height = call.Env.BlockContext().Number
		if result.Initialized, err = c.Initialized(); err != nil {
			return err
		}
		if result.Owner, err = c.Owner(); err != nil {
			return err
		}
		if result.Paused, err = c.Paused(); err != nil {
			return err
		}
		if result.PoolLength, err = c.PoolLength(); err != nil {
			return err
		}
		if result.TotalWeight, err = c.TotalWeight(); err != nil {
			return err
		}
		if result.SchemaVersion, err = c.SchemaVersion(); err != nil {
			return err
		}
		result.LayoutHash, err = c.LayoutHash()
		return err
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, result)
}

// Mount registers the pool routes under pathPrefix and the schedule route at /schedule.
func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pools").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPools))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /pools/{id}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{id}/users/{address}").
		Methods(http.MethodGet).
		Name("GET /pools/{id}/users/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetUser))
	sub.Path("/{id}/users/{address}/pending").
		Methods(http.MethodGet).
		Name("GET /pools/{id}/users/{address}/pending").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPending))

	root.Path("/schedule").
		Methods(http.MethodGet).
		Name("GET /schedule").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetSchedule))
}
