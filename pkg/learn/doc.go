// Package learn drives the full structure-learning loop: flow dynamics over
// a conductance maze, score-guided structure search, and ensemble restarts.
//
// Create a Runner over a scoring oracle and execute a run:
//
//	oracle, _ := score.NewBDeu(data, score.DefaultESS)
//	runner := learn.NewRunner(oracle, logger)
//	result, err := runner.Run(ctx, data.N(), learn.Options{Seed: 7})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Score, result.Network.Edges())
//
// All stochastic choices of a run derive from Options.Seed, so runs with
// equal seeds, datasets, and options are bit-identical.
package learn
