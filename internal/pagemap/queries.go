// Package pagemap holds the selectors and editor scripts for the challenge
// site. Queries are plain ordered data, highest priority first.
package pagemap

import "challenge-replayer/internal/entity"

var RevealControl = entity.ElementQuery{
	Purpose: "reveal_control",
	Selectors: []entity.Selector{
		entity.CSS("#showbtn"),
		entity.CSS("button[onclick='showSolution()']"),
		entity.CSS("button.ui.button.green"),
		entity.XPath("//button[contains(text(), 'View Solution')]"),
		entity.XPath("//button[contains(text(), 'Solution')]"),
		entity.CSS("button[id*='show']"),
		entity.CSS(".solution-button"),
	},
}

var CodePanel = entity.ElementQuery{
	Purpose: "code_panel",
	Selectors: []entity.Selector{
		entity.CSS("pre.hljs"),
		entity.CSS("pre[data-highlighted='yes']"),
	},
}

var SolutionBlock = entity.ElementQuery{
	Purpose: "solution_block",
	Selectors: []entity.Selector{
		entity.CSS("pre.hljs.language-cpp"),
		entity.CSS("pre.hljs.language-c"),
		entity.CSS("pre.hljs"),
		entity.CSS("pre[data-highlighted='yes']"),
		entity.CSS(".solution-code"),
		entity.CSS("code"),
	},
}

var Editor = entity.ElementQuery{
	Purpose: "destination_editor",
	Selectors: []entity.Selector{
		entity.CSS("#ctracktxtCode .ace_text-input"),
		entity.CSS(".ace_text-input"),
		entity.CSS("#txtCode"),
		entity.CSS("textarea[name='txtCode']"),
		entity.CSS("#ctracktxtCode"),
		entity.CSS(".ace_editor .ace_text-input"),
	},
}

var RunButton = entity.ElementQuery{
	Purpose: "run_button",
	Selectors: []entity.Selector{
		entity.XPath("//span[contains(text(), 'Run')]/.."),
		entity.XPath("//button[contains(text(), 'Run')]"),
		entity.CSS(".ui-button[onclick*='run']"),
		entity.CSS("#run_btn"),
		entity.CSS("button[onclick*='run']"),
	},
}

var ErrorPanel = entity.ElementQuery{
	Purpose: "error_panel",
	Selectors: []entity.Selector{
		entity.CSS("#errormsg_content"),
		entity.CSS(".error-panel"),
		entity.CSS(".compilation-error"),
		entity.CSS("[id*='error']"),
	},
}

var NextChallenge = entity.ElementQuery{
	Purpose: "next_challenge",
	Selectors: []entity.Selector{
		entity.XPath("//a[contains(text(), 'Next')]"),
		entity.XPath("//button[contains(text(), 'Next')]"),
		entity.CSS(".next-button"),
		entity.CSS(".nav-next"),
	},
}
