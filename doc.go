// Package lakeflow provides a workflow orchestration core for data-lake ETL pipelines.
//
// Pipelines are trees of tasks, sequential chains, parallel branch sets, fan-out maps,
// choices and singleton guards. Tasks call registered action services (query, storage,
// catalog, function); blocking tasks poll their asynchronous work until it finishes.
//
// End-users typically interact with the engine via the Service façade:
//
//	srv, _ := lakeflow.New(lakeflow.WithPipelines(baker.Pipelines()...))
//	rt := srv.Runtime()
//	report, _ := rt.Run(ctx, baker.MakeAddressBasePartitioned, nil)
package lakeflow
