/*
Package sandbox runs scripts against a page session with a blocking
request API.

Pages talk to the bridge asynchronously. Tooling and tests sometimes want
the opposite: a script that issues a request and reads the answer on the
next line. A Runtime is a goja VM with two globals for that:

	qortalRequest(request)
	qortalRequestWithTimeout(request, milliseconds)

Both block the script until the session's correlator settles the request.
They return the result, or throw an Error carrying the reply's error text.

# Limits

A script, including time spent waiting on requests, is bounded by
Config.Timeout. require, process, module and exports are removed, and
setTimeout and setInterval do nothing.

# Pooling

Runtimes are reset between uses and kept in a Pool:

	pool, _ := sandbox.NewPool(sandbox.DefaultConfig(), 4, logger)
	res, err := pool.Execute(ctx, `qortalRequest({action: "GET_USER_ACCOUNT"})`, sess)
*/
package sandbox
