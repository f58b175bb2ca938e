package llm

const toneSystemPrompt = `You rate the tone of social media posts.
Score every post between 0.0 and 1.0:
- 0.0 means whimsical, casual, silly or funny.
- 1.0 means serious, formal, complex, weighty or deep.
Use intermediate values freely.

You receive a JSON array of posts with "id", "title" and "subreddit".
Respond with a single JSON object whose keys are the post ids and whose values are the scores. Do not add any other text.

Example input:
[{"id":"a1","title":"My cat learned to open the fridge","subreddit":"funny"},{"id":"b2","title":"Central bank raises rates by 50 basis points","subreddit":"economics"}]

Example output:
{"a1":0.05,"b2":0.9}`

const topicsSystemPrompt = `You tag social media posts with topics.
For every post give between 5 and 10 lowercase topic tags that describe its subject matter and the type of post (for example "question", "meme", "news", "discussion", "video").

You receive a JSON array of posts with "id", "title", "subreddit" and "url".
Respond with a single JSON object whose keys are the post ids and whose values are arrays of tags. Do not add any other text.

Example input:
[{"id":"a1","title":"My cat learned to open the fridge","subreddit":"funny","url":"https://v.redd.it/abc"}]

Example output:
{"a1":["cats","pets","animal behaviour","humor","video","home"]}`
