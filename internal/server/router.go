package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tournevent/dispatch/internal/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// fieldFunc resolves one root field from its decoded arguments.
type fieldFunc func(ctx context.Context, args map[string]any) (any, error)

// operation is a parsed request ready to run.
type operation struct {
	def       *ast.OperationDefinition
	fragments ast.FragmentDefinitionList
}

func parseOperation(query, name string) (*operation, error) {
	if query == "" {
		return nil, errors.New("missing query")
	}
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	def := doc.Operations.ForName(name)
	if def == nil {
		if name == "" {
			return nil, errors.New("operationName is required when the document has several operations")
		}
		return nil, fmt.Errorf("unknown operation %q", name)
	}
	if def.Operation == ast.Subscription {
		return nil, errors.New("subscriptions are not supported")
	}
	return &operation{def: def, fragments: doc.Fragments}, nil
}

func (s *Server) roots(kind ast.Operation) map[string]fieldFunc {
	if kind == ast.Mutation {
		return s.mutationFields()
	}
	return s.queryFields()
}

// checkFields rejects documents naming root fields this service does not have.
func (s *Server) checkFields(op *operation) error {
	roots := s.roots(op.def.Operation)
	for _, f := range op.collect(op.def.SelectionSet) {
		if f.Name == "__typename" {
			continue
		}
		if _, ok := roots[f.Name]; !ok {
			return fmt.Errorf("unknown %s field %q", op.def.Operation, f.Name)
		}
	}
	return nil
}

// execute resolves root fields serially, in document order. A failing field
// is null in data and reported in errors.
func (s *Server) execute(ctx context.Context, op *operation, vars map[string]any) (map[string]any, []graphQLError) {
	vars = withDefaults(op.def.VariableDefinitions, vars)
	roots := s.roots(op.def.Operation)
	data := make(map[string]any)
	var errs []graphQLError

	for _, f := range op.collect(op.def.SelectionSet) {
		key := f.Alias
		if key == "" {
			key = f.Name
		}
		if f.Name == "__typename" {
			data[key] = typename(op.def.Operation)
			continue
		}

		args, err := arguments(f, vars)
		if err == nil {
			var result any
			result, err = roots[f.Name](ctx, args)
			if err == nil {
				data[key], err = op.project(result, f.SelectionSet)
			}
		}
		if err != nil {
			data[key] = nil
			errs = append(errs, graphQLError{Message: err.Error(), Path: []string{key}})
		}
	}
	return data, errs
}

func typename(kind ast.Operation) string {
	if kind == ast.Mutation {
		return "Mutation"
	}
	return "Query"
}

func withDefaults(defs ast.VariableDefinitionList, vars map[string]any) map[string]any {
	merged := make(map[string]any, len(vars)+len(defs))
	for k, v := range vars {
		merged[k] = v
	}
	for _, d := range defs {
		if _, ok := merged[d.Variable]; ok || d.DefaultValue == nil {
			continue
		}
		if v, err := d.DefaultValue.Value(nil); err == nil {
			merged[d.Variable] = v
		}
	}
	return merged
}

func arguments(f *ast.Field, vars map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(f.Arguments))
	for _, a := range f.Arguments {
		v, err := a.Value.Value(vars)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		args[a.Name] = v
	}
	return args, nil
}

// collect flattens fragment spreads and inline fragments into fields.
func (op *operation) collect(set ast.SelectionSet) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			fields = append(fields, sel)
		case *ast.InlineFragment:
			fields = append(fields, op.collect(sel.SelectionSet)...)
		case *ast.FragmentSpread:
			if frag := op.fragments.ForName(sel.Name); frag != nil {
				fields = append(fields, op.collect(frag.SelectionSet)...)
			}
		}
	}
	return fields
}

// project keeps only the selected fields of a resolver result. The result
// goes through its JSON form so the selection matches the json tags.
func (op *operation) project(result any, set ast.SelectionSet) (any, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return op.selectFields(value, set), nil
}

func (op *operation) selectFields(value any, set ast.SelectionSet) any {
	if len(set) == 0 {
		return value
	}
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = op.selectFields(elem, set)
		}
		return out
	case map[string]any:
		out := make(map[string]any)
		for _, f := range op.collect(set) {
			key := f.Alias
			if key == "" {
				key = f.Name
			}
			out[key] = op.selectFields(v[f.Name], f.SelectionSet)
		}
		return out
	default:
		return value
	}
}

// decodeArg converts a decoded argument into the resolver's input type.
func decodeArg(args map[string]any, name string, dst any) error {
	v, ok := args[name]
	if !ok || v == nil {
		return fmt.Errorf("missing or invalid '%s' argument", name)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid '%s' argument: %w", name, err)
	}
	return nil
}

func stringArg(args map[string]any, name string) (string, error) {
	s, ok := args[name].(string)
	if !ok {
		return "", fmt.Errorf("missing or invalid '%s' argument", name)
	}
	return s, nil
}

func optionalStringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func (s *Server) queryFields() map[string]fieldFunc {
	q := s.resolver.Query()
	return map[string]fieldFunc{
		"health": func(ctx context.Context, _ map[string]any) (any, error) {
			return q.Health(ctx)
		},
		"carriers": func(ctx context.Context, _ map[string]any) (any, error) {
			return q.Carriers(ctx)
		},
		"serviceTypes": func(ctx context.Context, args map[string]any) (any, error) {
			market, err := stringArg(args, "market")
			if err != nil {
				return nil, err
			}
			return q.ServiceTypes(ctx, market)
		},
		"specialRequests": func(ctx context.Context, args map[string]any) (any, error) {
			market, err := stringArg(args, "market")
			if err != nil {
				return nil, err
			}
			serviceType, err := stringArg(args, "serviceType")
			if err != nil {
				return nil, err
			}
			return q.SpecialRequests(ctx, market, optionalStringArg(args, "city"), serviceType)
		},
		"cities": func(ctx context.Context, args map[string]any) (any, error) {
			carrier, err := stringArg(args, "carrier")
			if err != nil {
				return nil, err
			}
			return q.Cities(ctx, carrier)
		},
		"order": func(ctx context.Context, args map[string]any) (any, error) {
			carrier, err := stringArg(args, "carrier")
			if err != nil {
				return nil, err
			}
			orderID, err := stringArg(args, "orderId")
			if err != nil {
				return nil, err
			}
			return q.Order(ctx, carrier, orderID)
		},
		"driver": func(ctx context.Context, args map[string]any) (any, error) {
			carrier, orderID, driverID, err := driverArgs(args)
			if err != nil {
				return nil, err
			}
			return q.Driver(ctx, carrier, orderID, driverID)
		},
		"driverLocation": func(ctx context.Context, args map[string]any) (any, error) {
			carrier, orderID, driverID, err := driverArgs(args)
			if err != nil {
				return nil, err
			}
			return q.DriverLocation(ctx, carrier, orderID, driverID)
		},
	}
}

func driverArgs(args map[string]any) (carrier, orderID, driverID string, err error) {
	if carrier, err = stringArg(args, "carrier"); err != nil {
		return
	}
	if orderID, err = stringArg(args, "orderId"); err != nil {
		return
	}
	driverID, err = stringArg(args, "driverId")
	return
}

func (s *Server) mutationFields() map[string]fieldFunc {
	m := s.resolver.Mutation()
	return map[string]fieldFunc{
		"dispatch_get_quote": func(ctx context.Context, args map[string]any) (any, error) {
			var input graphql.GetQuoteInput
			if err := decodeArg(args, "input", &input); err != nil {
				return nil, err
			}
			return m.DispatchGetQuote(ctx, input)
		},
		"dispatch_place_order": func(ctx context.Context, args map[string]any) (any, error) {
			var input graphql.PlaceOrderInput
			if err := decodeArg(args, "input", &input); err != nil {
				return nil, err
			}
			return m.DispatchPlaceOrder(ctx, input)
		},
		"dispatch_cancel_order": func(ctx context.Context, args map[string]any) (any, error) {
			var input graphql.CancelOrderInput
			if err := decodeArg(args, "input", &input); err != nil {
				return nil, err
			}
			return m.DispatchCancelOrder(ctx, input)
		},
		"dispatch_change_driver": func(ctx context.Context, args map[string]any) (any, error) {
			var input graphql.ChangeDriverInput
			if err := decodeArg(args, "input", &input); err != nil {
				return nil, err
			}
			return m.DispatchChangeDriver(ctx, input)
		},
		"dispatch_add_priority_fee": func(ctx context.Context, args map[string]any) (any, error) {
			var input graphql.PriorityFeeInput
			if err := decodeArg(args, "input", &input); err != nil {
				return nil, err
			}
			return m.DispatchAddPriorityFee(ctx, input)
		},
	}
}
