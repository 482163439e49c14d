package executor

import "reflect"

// callHandler invokes a module handler through reflection and splits its
// (result, error) return pair.
func callHandler(fn reflect.Value, args ...reflect.Value) (any, error) {
	out := fn.Call(args)
	result, errVal := out[0].Interface(), out[1].Interface()
	if errVal != nil {
		return nil, errVal.(error)
	}
	return result, nil
}

// inputArg picks the handler's input argument: the decoded struct when the
// module declares one, the parameter's zero value when it does not.
func inputArg(fn reflect.Value, pos int, inputStruct any) reflect.Value {
	if inputStruct == nil {
		return reflect.Zero(fn.Type().In(pos))
	}
	return reflect.ValueOf(inputStruct)
}
